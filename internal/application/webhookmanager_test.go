package application_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TejAtParkourOps/Airetable/internal/application"
	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
	"github.com/TejAtParkourOps/Airetable/internal/domain/port/driven"
)

func futureMillis() string {
	return strconv.FormatInt(time.Now().Add(24*time.Hour).UnixMilli(), 10)
}

func storedEntry(webhookID, expiry string) map[string]string {
	return map[string]string{
		model.EntryFieldAuthToken:       "tkn",
		model.EntryFieldWebhookID:       webhookID,
		model.EntryFieldMACSecret:       "c2VjcmV0",
		model.EntryFieldExpiryTimestamp: expiry,
	}
}

// --- Find ---

func TestWebhookManager_Find_Valid(t *testing.T) {
	store := newMemEntryStore()
	stored := storedEntry("achW1", futureMillis())
	require.NoError(t, store.SetFields(context.Background(), "appA", stored))
	mgr := application.NewWebhookManager(&mockAirtableClient{}, store)

	entry, err := mgr.Find(context.Background(), "appA")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "achW1", entry.WebhookID)
	assert.Equal(t, stored, store.fields("appA"), "valid entry is left unchanged")
	assert.Zero(t, store.deletes)
}

func TestWebhookManager_Find_PurgesInvalid(t *testing.T) {
	past := strconv.FormatInt(time.Now().Add(-time.Minute).UnixMilli(), 10)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{name: "missing auth token", fields: func() map[string]string {
			f := storedEntry("achW1", futureMillis())
			delete(f, model.EntryFieldAuthToken)
			return f
		}()},
		{name: "missing webhook id", fields: func() map[string]string {
			f := storedEntry("achW1", futureMillis())
			delete(f, model.EntryFieldWebhookID)
			return f
		}()},
		{name: "missing mac secret", fields: func() map[string]string {
			f := storedEntry("achW1", futureMillis())
			delete(f, model.EntryFieldMACSecret)
			return f
		}()},
		{name: "missing expiry", fields: func() map[string]string {
			f := storedEntry("achW1", futureMillis())
			delete(f, model.EntryFieldExpiryTimestamp)
			return f
		}()},
		{name: "extra key", fields: func() map[string]string {
			f := storedEntry("achW1", futureMillis())
			f["legacy"] = "1"
			return f
		}()},
		{name: "expired", fields: storedEntry("achW1", past)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemEntryStore()
			require.NoError(t, store.SetFields(context.Background(), "appA", tt.fields))
			mgr := application.NewWebhookManager(&mockAirtableClient{}, store)

			entry, err := mgr.Find(context.Background(), "appA")

			require.NoError(t, err)
			assert.Nil(t, entry)
			assert.Empty(t, store.fields("appA"), "invalid entry is purged")
		})
	}
}

func TestWebhookManager_Find_Absent(t *testing.T) {
	store := newMemEntryStore()
	mgr := application.NewWebhookManager(&mockAirtableClient{}, store)

	entry, err := mgr.Find(context.Background(), "appA")

	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Zero(t, store.deletes)
}

func TestWebhookManager_Find_StoreFailureIsTransport(t *testing.T) {
	store := newMemEntryStore()
	store.getErr = errStoreDown
	mgr := application.NewWebhookManager(&mockAirtableClient{}, store)

	_, err := mgr.Find(context.Background(), "appA")

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransport)
	assert.ErrorIs(t, err, errStoreDown)
}

// --- Create ---

func TestWebhookManager_Create_PersistsEntry(t *testing.T) {
	expiry := time.Now().Add(7 * 24 * time.Hour).Truncate(time.Millisecond)
	client := &mockAirtableClient{
		createWebhook: func(string) *model.CreatedWebhook {
			return &model.CreatedWebhook{ID: "achW9", MACSecretBase64: "c2VjcmV0", ExpirationTime: &expiry}
		},
	}
	store := newMemEntryStore()
	mgr := application.NewWebhookManager(client, store)

	entry, err := mgr.Create(context.Background(), "tkn", "appA")

	require.NoError(t, err)
	assert.Equal(t, "achW9", entry.WebhookID)
	assert.Equal(t, expiry.UnixMilli(), entry.ExpiryTimestamp)
	assert.Equal(t, entry.Fields(), store.fields("appA"))

	found, err := mgr.Find(context.Background(), "appA")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entry, *found)
}

func TestWebhookManager_Create_MissingExpirationIsImmediatelyStale(t *testing.T) {
	store := newMemEntryStore()
	mgr := application.NewWebhookManager(&mockAirtableClient{}, store)

	before := time.Now()
	entry, err := mgr.Create(context.Background(), "tkn", "appA")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, entry.ExpiryTimestamp, before.UnixMilli())

	// Let the clock pass the millisecond the entry expires at.
	time.Sleep(2 * time.Millisecond)

	found, err := mgr.Find(context.Background(), "appA")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestWebhookManager_Create_StoreFailureRemovesUpstreamWebhook(t *testing.T) {
	client := &mockAirtableClient{}
	store := newMemEntryStore()
	store.setErr = errStoreDown
	mgr := application.NewWebhookManager(client, store)

	_, err := mgr.Create(context.Background(), "tkn", "appA")

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransport)
	assert.Equal(t, []string{"achNew"}, client.deletedIDs)
}

// --- EnsureSubscription ---

func TestWebhookManager_EnsureSubscription_RefreshesExisting(t *testing.T) {
	client := &mockAirtableClient{}
	store := newMemEntryStore()
	stored := storedEntry("achW1", futureMillis())
	require.NoError(t, store.SetFields(context.Background(), "appA", stored))
	mgr := application.NewWebhookManager(client, store)

	entry, err := mgr.EnsureSubscription(context.Background(), "tkn2", "appA")

	require.NoError(t, err)
	assert.Equal(t, "achW1", entry.WebhookID)
	assert.Equal(t, int32(1), client.refreshes.Load())
	assert.Zero(t, client.creates.Load())
	assert.Equal(t, stored, store.fields("appA"), "refresh does not rewrite the local entry")
}

func TestWebhookManager_EnsureSubscription_CreatesWhenAbsent(t *testing.T) {
	client := &mockAirtableClient{}
	mgr := application.NewWebhookManager(client, newMemEntryStore())

	entry, err := mgr.EnsureSubscription(context.Background(), "tkn", "appA")

	require.NoError(t, err)
	assert.Equal(t, "achNew", entry.WebhookID)
	assert.Equal(t, int32(1), client.creates.Load())
	assert.Zero(t, client.refreshes.Load())
}

func TestWebhookManager_EnsureSubscription_RecreatesWhenUpstreamForgot(t *testing.T) {
	client := &mockAirtableClient{
		refreshErr: fmt.Errorf("%w: %w", driven.ErrWebhookNotFound, &driven.StatusError{Op: "refresh", StatusCode: 404}),
	}
	store := newMemEntryStore()
	require.NoError(t, store.SetFields(context.Background(), "appA", storedEntry("achGone", futureMillis())))
	mgr := application.NewWebhookManager(client, store)

	entry, err := mgr.EnsureSubscription(context.Background(), "tkn", "appA")

	require.NoError(t, err)
	assert.Equal(t, "achNew", entry.WebhookID)
	assert.Equal(t, "achNew", store.fields("appA")[model.EntryFieldWebhookID])
}

func TestWebhookManager_EnsureSubscription_RefreshFailurePropagates(t *testing.T) {
	statusErr := &driven.StatusError{Op: "refresh", StatusCode: 401}
	client := &mockAirtableClient{refreshErr: statusErr}
	store := newMemEntryStore()
	require.NoError(t, store.SetFields(context.Background(), "appA", storedEntry("achW1", futureMillis())))
	mgr := application.NewWebhookManager(client, store)

	_, err := mgr.EnsureSubscription(context.Background(), "tkn", "appA")

	var got *driven.StatusError
	require.ErrorAs(t, err, &got)
	assert.Zero(t, client.creates.Load())
}

func TestWebhookManager_EnsureSubscription_ConcurrentSameBaseCreatesOnce(t *testing.T) {
	release := make(chan struct{})
	expiry := time.Now().Add(time.Hour)
	client := &mockAirtableClient{
		onCreate: func() { <-release },
		createWebhook: func(string) *model.CreatedWebhook {
			return &model.CreatedWebhook{ID: "achNew", MACSecretBase64: "c2VjcmV0", ExpirationTime: &expiry}
		},
	}
	store := newMemEntryStore()
	mgr := application.NewWebhookManager(client, store)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]model.WebhookEntry, callers)
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = mgr.EnsureSubscription(context.Background(), "tkn", "appA")
		}()
	}

	// Give every caller time to join the in-flight call before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "achNew", results[i].WebhookID)
	}
	assert.Equal(t, int32(1), client.creates.Load())
}

func TestWebhookManager_EnsureSubscription_DifferentBasesDoNotWait(t *testing.T) {
	release := make(chan struct{})
	client := &mockAirtableClient{onCreate: func() { <-release }}
	store := newMemEntryStore()
	require.NoError(t, store.SetFields(context.Background(), "appB", storedEntry("achB", futureMillis())))
	mgr := application.NewWebhookManager(client, store)

	done := make(chan error, 1)
	go func() {
		_, err := mgr.EnsureSubscription(context.Background(), "tkn", "appBlocked")
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)

	// appB only refreshes and must not queue behind the blocked create.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	entry, err := mgr.EnsureSubscription(ctx, "tkn", "appB")
	require.NoError(t, err)
	assert.Equal(t, "achB", entry.WebhookID)

	close(release)
	require.NoError(t, <-done)
}

func TestWebhookManager_EnsureSubscription_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	client := &mockAirtableClient{onCreate: func() { <-release }}
	mgr := application.NewWebhookManager(client, newMemEntryStore())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := mgr.EnsureSubscription(ctx, "tkn", "appA")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

// --- Delete / Unsubscribe ---

func TestWebhookManager_Delete(t *testing.T) {
	store := newMemEntryStore()
	require.NoError(t, store.SetFields(context.Background(), "appA", storedEntry("achW1", futureMillis())))
	mgr := application.NewWebhookManager(&mockAirtableClient{}, store)

	require.NoError(t, mgr.Delete(context.Background(), "appA"))
	assert.Empty(t, store.fields("appA"))

	require.NoError(t, mgr.Delete(context.Background(), "appNone"), "deleting nothing is fine")
}

func TestWebhookManager_Unsubscribe(t *testing.T) {
	client := &mockAirtableClient{}
	store := newMemEntryStore()
	past := strconv.FormatInt(time.Now().Add(-time.Hour).UnixMilli(), 10)
	require.NoError(t, store.SetFields(context.Background(), "appA", storedEntry("achW1", past)))
	mgr := application.NewWebhookManager(client, store)

	existed, err := mgr.Unsubscribe(context.Background(), "tkn", "appA")

	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, []string{"achW1"}, client.deletedIDs, "expired entries are still removed upstream")
	assert.Empty(t, store.fields("appA"))

	existed, err = mgr.Unsubscribe(context.Background(), "tkn", "appA")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestWebhookManager_Unsubscribe_UpstreamAlreadyGone(t *testing.T) {
	client := &mockAirtableClient{deleteErr: driven.ErrWebhookNotFound}
	store := newMemEntryStore()
	require.NoError(t, store.SetFields(context.Background(), "appA", storedEntry("achW1", futureMillis())))
	mgr := application.NewWebhookManager(client, store)

	existed, err := mgr.Unsubscribe(context.Background(), "tkn", "appA")

	require.NoError(t, err)
	assert.True(t, existed)
	assert.Empty(t, store.fields("appA"))
}

func TestWebhookManager_Unsubscribe_UpstreamFailureKeepsEntry(t *testing.T) {
	client := &mockAirtableClient{deleteErr: &driven.StatusError{Op: "delete", StatusCode: 401}}
	store := newMemEntryStore()
	require.NoError(t, store.SetFields(context.Background(), "appA", storedEntry("achW1", futureMillis())))
	mgr := application.NewWebhookManager(client, store)

	_, err := mgr.Unsubscribe(context.Background(), "tkn", "appA")

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	assert.NotEmpty(t, store.fields("appA"))
}

func TestWebhookManager_Unsubscribe_RequiresOwningToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "no token", token: ""},
		{name: "other token", token: "someone-else"},
		{name: "token prefix", token: "tk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockAirtableClient{}
			store := newMemEntryStore()
			stored := storedEntry("achW1", futureMillis())
			require.NoError(t, store.SetFields(context.Background(), "appA", stored))
			mgr := application.NewWebhookManager(client, store)

			_, err := mgr.Unsubscribe(context.Background(), tt.token, "appA")

			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrUnauthorized)
			assert.Zero(t, client.deletes.Load(), "upstream webhook must be left alone")
			assert.Equal(t, stored, store.fields("appA"))
		})
	}
}

func TestWebhookManager_Subscriptions(t *testing.T) {
	store := newMemEntryStore()
	require.NoError(t, store.SetFields(context.Background(), "appA", storedEntry("achW1", futureMillis())))
	require.NoError(t, store.SetFields(context.Background(), "appBroken", map[string]string{"webhookId": "x"}))
	mgr := application.NewWebhookManager(&mockAirtableClient{}, store)

	subs, err := mgr.Subscriptions(context.Background())

	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "appA", subs[0].BaseID)
	assert.False(t, subs[0].Expired)
	assert.NotEmpty(t, store.fields("appBroken"), "listing does not purge")
}
