package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/storage"
)

func TestProfile_CacheHit(t *testing.T) {
	t.Parallel()

	svc, _, pc, ctrl := newSvc(t)
	defer ctrl.Finish()

	uid := primitive.NewObjectID()
	cached := &models.Profile{ID: uid.Hex(), Username: "gopher"}

	// При попадании в кэш БД не трогается вовсе.
	pc.EXPECT().Get(gomock.Any(), uid.Hex()).Return(cached, true, nil)

	got, err := svc.Profile(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, cached, got)
}

func TestProfile_CacheMissRepopulates(t *testing.T) {
	t.Parallel()

	svc, st, pc, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, svc, "Abcdef1!")

	pc.EXPECT().Get(gomock.Any(), user.ID.Hex()).Return(nil, false, nil)
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	pc.EXPECT().SetNX(gomock.Any(), user.ID.Hex(), gomock.Any(), svc.cfg.Redis.ProfileTTL).
		DoAndReturn(func(_ context.Context, _ string, p *models.Profile, _ time.Duration) error {
			// В кэш уходит ровно публичная проекция: без хэша пароля.
			require.Equal(t, user.ID.Hex(), p.ID)
			require.Equal(t, user.Username, p.Username)
			return nil
		})

	got, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Username, got.Username)
	require.Equal(t, user.Email, got.Email)
}

// Недоступный Redis деградирует до прямого чтения из БД, а не до ошибки.
func TestProfile_CacheBackendDown(t *testing.T) {
	t.Parallel()

	svc, st, pc, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, svc, "Abcdef1!")
	redisErr := errors.New("redis down")

	pc.EXPECT().Get(gomock.Any(), user.ID.Hex()).Return(nil, false, redisErr)
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	pc.EXPECT().SetNX(gomock.Any(), user.ID.Hex(), gomock.Any(), gomock.Any()).Return(redisErr)

	got, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Username, got.Username)
}

func TestProfile_UserNotFound(t *testing.T) {
	t.Parallel()

	svc, st, pc, ctrl := newSvc(t)
	defer ctrl.Finish()

	uid := primitive.NewObjectID()

	pc.EXPECT().Get(gomock.Any(), uid.Hex()).Return(nil, false, nil)
	st.EXPECT().UserByID(gomock.Any(), uid).Return(nil, storage.ErrNotFound)

	_, err := svc.Profile(context.Background(), uid)
	require.ErrorIs(t, err, ErrNotFound)
}
