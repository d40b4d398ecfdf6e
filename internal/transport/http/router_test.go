package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pribylovaa/go-user-api/internal/config"
	"github.com/pribylovaa/go-user-api/internal/crypto"
	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/opaqueid"
	"github.com/pribylovaa/go-user-api/internal/service"
	"github.com/pribylovaa/go-user-api/internal/storage"
	"github.com/pribylovaa/go-user-api/mocks"
)

const testSecret = "router-test-secret"

type fixture struct {
	handler http.Handler
	svc     *service.Service
	st      *mocks.MockStorage
	pc      *mocks.MockProfileCache
	codec   *opaqueid.Codec
	sig     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := mocks.NewMockStorage(ctrl)
	pc := mocks.NewMockProfileCache(ctrl)

	cfg := &config.Config{
		Env: "local",
		App: config.AppConfig{Name: "user-api", Version: 2},
		Auth: config.AuthConfig{
			JWTSecret:       testSecret,
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
			Issuer:          "user-api",
		},
		Redis: config.RedisConfig{ProfileTTL: 15 * time.Minute},
	}

	svc := service.New(st, pc, cfg)

	handler, err := NewRouter(svc, cfg, Options{Timeout: 5 * time.Second})
	require.NoError(t, err)

	codec, err := opaqueid.NewCodec(testSecret)
	require.NoError(t, err)

	env := crypto.NewEnvelope(testSecret)
	payload, err := json.Marshal(map[string]any{"appName": "user-api", "appVersion": 2})
	require.NoError(t, err)
	sig, err := env.Seal(string(payload))
	require.NoError(t, err)

	return &fixture{handler: handler, svc: svc, st: st, pc: pc, codec: codec, sig: sig}
}

func (f *fixture) do(t *testing.T, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("signature", f.sig)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) activeUser(t *testing.T) *models.User {
	t.Helper()

	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: "gopher",
		Email:    "gopher@example.com",
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}
}

func (f *fixture) accessFor(t *testing.T, user *models.User) string {
	t.Helper()

	f.st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)
	pair, err := f.svc.Issue(context.Background(), user)
	require.NoError(t, err)
	return pair.AccessToken
}

// Без заголовка signature ни один маршрут не достижим.
func TestRouter_SignatureGatesEverything(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RegisterIssuesPair(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) (*models.User, error) {
			u.ID = primitive.NewObjectID()
			return u, nil
		})
	f.st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	rec := f.do(t, http.MethodPost, "/v1/auth/register",
		`{"username":"gopher","email":"gopher@example.com","password":"Abcdef1!"}`, "")

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		User struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
		Tokens struct {
			TokenType    string `json:"tokenType"`
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Bearer", resp.Tokens.TokenType)
	require.NotEmpty(t, resp.Tokens.AccessToken)

	// id в ответе непрозрачен, но обратим в валидный hex ObjectID.
	hexID, err := f.codec.DecodeHex(resp.User.ID)
	require.NoError(t, err)
	_, err = primitive.ObjectIDFromHex(hexID)
	require.NoError(t, err)
}

func TestRouter_ProfileThroughGate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	user := f.activeUser(t)
	token := f.accessFor(t, user)

	// Холодный кэш: гейт делает ровно одно чтение БД и репопулирует кэш;
	// ответ отдаётся из той же проекции без повторных чтений.
	f.pc.EXPECT().Get(gomock.Any(), user.ID.Hex()).Return(nil, false, nil)
	f.st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	f.pc.EXPECT().SetNX(gomock.Any(), user.ID.Hex(), gomock.Any(), gomock.Any()).Return(nil)

	rec := f.do(t, http.MethodGet, "/v1/users/profile", "", token)

	require.Equal(t, http.StatusOK, rec.Code)

	var profile struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, "gopher", profile.Username)

	hexID, err := f.codec.DecodeHex(profile.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID.Hex(), hexID)
}

// Чужой профиль без роли admin — 403.
func TestRouter_ForeignProfileForbidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	user := f.activeUser(t)
	token := f.accessFor(t, user)
	foreign := primitive.NewObjectID()

	opaque, err := f.codec.EncodeHex(foreign.Hex())
	require.NoError(t, err)

	// Тёплый кэш: аутентификация проходит без обращений к БД.
	prof := user.Profile()
	f.pc.EXPECT().Get(gomock.Any(), user.ID.Hex()).Return(&prof, true, nil)

	rec := f.do(t, http.MethodGet, "/v1/users/"+opaque, "", token)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

// Незакодированный (сырой hex) id в пути — 404: идентификаторы обязаны
// приходить в непрозрачной форме, и «битый id» неотличим от «нет записи».
func TestRouter_RawHexIDRejectedAsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	admin := f.activeUser(t)
	admin.Role = models.RoleAdmin
	token := f.accessFor(t, admin)

	prof := admin.Profile()
	f.pc.EXPECT().Get(gomock.Any(), admin.ID.Hex()).Return(&prof, true, nil)

	rec := f.do(t, http.MethodGet, "/v1/users/"+primitive.NewObjectID().Hex(), "", token)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RefreshRotation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	user := f.activeUser(t)
	oldToken := user.ID.Hex() + ".cafebabe"

	f.st.EXPECT().ConsumeRefreshToken(gomock.Any(), oldToken).Return(&models.RefreshToken{
		Token:     oldToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	f.st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	f.st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	rec := f.do(t, http.MethodPost, "/v1/auth/refresh", `{"refreshToken":"`+oldToken+`"}`, "")

	require.Equal(t, http.StatusOK, rec.Code)

	var pair struct {
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEqual(t, oldToken, pair.RefreshToken)
	require.NotEmpty(t, pair.ExpiresIn)
}

func TestRouter_LogoutConsumedTokenIs401(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.st.EXPECT().DeleteRefreshToken(gomock.Any(), "spent").
		Return(storage.ErrNotFound)

	rec := f.do(t, http.MethodPost, "/v1/auth/logout", `{"refreshToken":"spent"}`, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
