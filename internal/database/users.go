package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ruslanbay/milk-indent/internal/models"
)

var (
	ErrDuplicateUser = errors.New("пользователь уже существует")
)

const (
	InsertUserQuery = `
		INSERT INTO
			users (login, hash)
		VALUES ($1, $2)
	`
	SelectUserQuery = `
		SELECT
			id,
			login,
			hash
		FROM
			users
		WHERE
			login = $1
	`
)

type UserDB struct {
	models.User
}

// Создание нового пользователя
func (d *Database) CreateUser(ctx context.Context, user UserDB) error {
	_, err := d.db.Exec(ctx, InsertUserQuery, user.Login, user.Hash)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateUser
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	return nil
}

// Поиск пользователя по логину
func (d *Database) FindUser(ctx context.Context, login string) (*UserDB, error) {
	user := &UserDB{}

	err := d.db.QueryRow(ctx, SelectUserQuery, login).
		Scan(&user.ID, &user.Login, &user.Hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	return user, nil
}
