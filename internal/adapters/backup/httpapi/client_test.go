package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/worldvote/api/internal/core/domain"
)

func TestBackupPostsRecord(t *testing.T) {
	var gotAuth string
	var gotRecord domain.VoteRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRecord))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := &domain.VoteRecord{
		ID:          uuid.New(),
		Email:       "ada@example.com",
		Nationality: "FR",
		Created:     &created,
		Index:       3,
	}

	c := NewClient(srv.URL, "backup-secret")
	require.NoError(t, c.Backup(context.Background(), record))
	require.Equal(t, "Bearer backup-secret", gotAuth)
	require.Equal(t, "ada@example.com", gotRecord.Email)
	require.Equal(t, 3, gotRecord.Index)
	require.True(t, gotRecord.Finalized())
}

func TestBackupRejectedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.Backup(context.Background(), &domain.VoteRecord{ID: uuid.New(), Email: "ada@example.com"})
	require.ErrorContains(t, err, "403")
}

func TestBackupUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, "")
	err := c.Backup(context.Background(), &domain.VoteRecord{ID: uuid.New(), Email: "ada@example.com"})
	require.Error(t, err)
}
