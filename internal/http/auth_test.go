package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/ruslanbay/milk-indent/internal/models"
	mock_models "github.com/ruslanbay/milk-indent/internal/models/mocks"
	"github.com/ruslanbay/milk-indent/internal/services"
	"github.com/ruslanbay/milk-indent/internal/utils"
)

func TestRegisterRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, nil, nil, nil).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		body            func() io.Reader
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
		testHeader      func(t *testing.T, header http.Header)
	}{
		{
			testName:        "Should return a validation error due to missing body",
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Ошибка при разборе данных JSON: unexpected end of JSON input\n",
		},
		{
			testName: "Should return a validation error due to missing user login",
			body: func() io.Reader {
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Request doesn't contain login or password\n",
		},
		{
			testName: "Should return error when user is already registered",
			test: func(t *testing.T) {
				Login := "user"
				Password := "123"

				jwtServiceMock.EXPECT().GenerateJWT("user").Return("token", nil)
				authServiceMock.EXPECT().Register(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(services.ErrUserIsAlreadyRegistered)
			},
			body: func() io.Reader {
				Login := "user"
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Login: &Login, Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusConflict,
			expectedMessage: "User is already registered\n",
		},
		{
			testName: "Should register user",
			test: func(t *testing.T) {
				Login := "user"
				Password := "123"

				jwtServiceMock.EXPECT().GenerateJWT("user").Return("token", nil)
				authServiceMock.EXPECT().Register(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(nil)
			},
			body: func() io.Reader {
				Login := "user"
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Login: &Login, Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "",
			testHeader: func(t *testing.T, header http.Header) {
				assert.Equal(t, "Bearer token", header.Get("Authorization"))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			var body io.Reader

			if tc.body != nil {
				body = tc.body()
			}

			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				"POST",
				"/api/user/register",
				map[string]string{"Content-Type": "application/json"},
				body,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)

			if tc.testHeader != nil {
				tc.testHeader(t, res.Header)
			}
		})
	}
}

func TestLoginRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, nil, nil, nil).get(),
	)
	defer testServer.Close()

	testCases := []struct {
		testName        string
		body            func() io.Reader
		test            func(t *testing.T)
		expectedCode    int
		expectedMessage string
		testHeader      func(t *testing.T, header http.Header)
	}{
		{
			testName: "Should return a validation error due to missing user password",
			body: func() io.Reader {
				Login := "user"
				data, _ := json.Marshal(models.UnknownUser{Login: &Login})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Запрос не содержит логин или пароль\n",
		},
		{
			testName: "Should return error when user login isn't exist",
			test: func(t *testing.T) {
				Login := "user"
				Password := "123"

				authServiceMock.EXPECT().Login(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(services.ErrUserIsNotExist)
			},
			body: func() io.Reader {
				Login := "user"
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Login: &Login, Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Пользователь с логином user не существует\n",
		},
		{
			testName: "Should return error when password isn't correct",
			test: func(t *testing.T) {
				Login := "user"
				Password := "123"

				authServiceMock.EXPECT().Login(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(services.ErrPasswordIsIncorrect)
			},
			body: func() io.Reader {
				Login := "user"
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Login: &Login, Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Неверный пароль\n",
		},
		{
			testName: "Should return authorization header",
			test: func(t *testing.T) {
				Login := "user"
				Password := "123"

				jwtServiceMock.EXPECT().GenerateJWT("user").Return("token", nil)
				authServiceMock.EXPECT().Login(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(nil)
			},
			body: func() io.Reader {
				Login := "user"
				Password := "123"
				data, _ := json.Marshal(models.UnknownUser{Login: &Login, Password: &Password})
				return bytes.NewBuffer(data)
			},
			expectedCode:    http.StatusOK,
			expectedMessage: "",
			testHeader: func(t *testing.T, header http.Header) {
				assert.Equal(t, "Bearer token", header.Get("Authorization"))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			var body io.Reader

			if tc.body != nil {
				body = tc.body()
			}

			if tc.test != nil {
				tc.test(t)
			}

			res, mes := utils.TestRequest(
				t,
				testServer,
				"POST",
				"/api/user/login",
				map[string]string{"Content-Type": "application/json"},
				body,
			)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			assert.Equal(t, tc.expectedMessage, mes)

			if tc.testHeader != nil {
				tc.testHeader(t, res.Header)
			}
		})
	}
}
