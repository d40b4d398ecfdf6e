package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pribylovaa/go-user-api/internal/config"
	"github.com/pribylovaa/go-user-api/internal/storage"
)

// Интеграционные тесты для пакета minio:
// — поднимают реальный MinIO через testcontainers-go;
// — проверяют:
//    New: успешное подключение и ошибку при отсутствии бакета;
//    AvatarUploadURL: выдачу presigned PUT и валидации по типу/размеру;
//    CheckAvatarUpload: подтверждение существующего объекта, сборку
//    публичного URL и отказ на «чужой» ключ/несуществующий объект.
//
// Запуск:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/minio -v -race -count=1

func startMinio(t *testing.T, createBucket bool) (*AvatarsStorage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	const (
		image     = "docker.io/minio/minio:latest"
		accessKey = "root"
		secretKey = "rootpass"
		bucket    = "avatars"
	)
	req := tc.ContainerRequest{
		Image: image,
		Env: map[string]string{
			"MINIO_ROOT_USER":     accessKey,
			"MINIO_ROOT_PASSWORD": secretKey,
		},
		Cmd:          []string{"server", "/data", "--console-address", ":9001"},
		ExposedPorts: []string{"9000/tcp", "9001/tcp"},
		WaitingFor:   wait.ForListeningPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "9000/tcp")
	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())

	if createBucket {
		admin, err := mclient.New(host+":"+port.Port(), &mclient.Options{
			Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure: false,
		})
		require.NoError(t, err)
		err = admin.MakeBucket(ctx, bucket, mclient.MakeBucketOptions{Region: "us-east-1"})
		require.NoError(t, err)
	}

	s3Cfg := config.S3Config{
		Endpoint:      endpoint,
		AccessKey:     accessKey,
		SecretKey:     secretKey,
		Bucket:        bucket,
		PresignTTL:    2 * time.Minute,
		PublicBaseURL: "http://cdn.local",
	}
	avatarCfg := config.AvatarConfig{
		MaxSizeBytes:        1 << 20, // 1 MiB
		AllowedContentTypes: []string{"image/png", "image/jpeg", "image/webp"},
	}

	st, newErr := New(ctx, s3Cfg, avatarCfg)
	if !createBucket {
		require.Error(t, newErr)
		_ = c.Terminate(context.Background())
		return nil, func() {}
	}
	require.NoError(t, newErr)

	return st, func() {
		_ = c.Terminate(context.Background())
	}
}

func TestIntegration_New_BucketMustExist(t *testing.T) {
	// Без предварительного создания бакета New должен вернуть ошибку.
	_, _ = startMinio(t, false)
}

func TestIntegration_AvatarUploadURL_And_CheckAvatarUpload_OK(t *testing.T) {
	st, cleanup := startMinio(t, true)
	defer cleanup()

	ctx := context.Background()
	uid := primitive.NewObjectID()

	body := []byte("png!!")
	ui, err := st.AvatarUploadURL(ctx, uid, "image/png", int64(len(body)))
	require.NoError(t, err)
	require.NotEmpty(t, ui.UploadURL)
	require.Contains(t, ui.AvatarKey, "avatars/"+uid.Hex()+"/")
	require.Equal(t, "image/png", ui.RequiredHeader["Content-Type"])

	// Загружаем объект по presigned PUT так, как это сделал бы клиент.
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, ui.UploadURL, bytes.NewReader(body))
	require.NoError(t, err)
	for k, v := range ui.RequiredHeader {
		httpReq.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	publicURL, err := st.CheckAvatarUpload(ctx, uid, ui.AvatarKey)
	require.NoError(t, err)
	require.Equal(t, "http://cdn.local/"+ui.AvatarKey, publicURL)
}

func TestIntegration_AvatarUploadURL_Validation(t *testing.T) {
	st, cleanup := startMinio(t, true)
	defer cleanup()

	ctx := context.Background()
	uid := primitive.NewObjectID()

	_, err := st.AvatarUploadURL(ctx, uid, "application/zip", 100)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	_, err = st.AvatarUploadURL(ctx, uid, "image/png", 0)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	_, err = st.AvatarUploadURL(ctx, uid, "image/png", (1<<20)+1)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)
}

func TestIntegration_CheckAvatarUpload_Failures(t *testing.T) {
	st, cleanup := startMinio(t, true)
	defer cleanup()

	ctx := context.Background()
	uid := primitive.NewObjectID()

	// Ключ другого пользователя отвергается до обращения к хранилищу.
	foreign := "avatars/" + primitive.NewObjectID().Hex() + "/x.png"
	_, err := st.CheckAvatarUpload(ctx, uid, foreign)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	// Свой ключ, но объект так и не был загружен.
	_, err = st.CheckAvatarUpload(ctx, uid, "avatars/"+uid.Hex()+"/missing.png")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
