package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/maxaizer/job-insights/internal/config"
	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/maxaizer/job-insights/internal/messaging"
	"github.com/maxaizer/job-insights/internal/store"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, entityID string) *models.Entity {
	entity, _ := m.Called(ctx, entityID).Get(0).(*models.Entity)
	return entity
}

func (m *mockStore) Put(ctx context.Context, entityID string, counts models.Counts) {
	m.Called(ctx, entityID, counts)
}

func (m *mockStore) History() []models.Entity {
	return m.Called().Get(0).([]models.Entity)
}

func (m *mockStore) Export() models.Snapshot {
	return m.Called().Get(0).(models.Snapshot)
}

func (m *mockStore) Import(ctx context.Context, snapshot models.Snapshot) error {
	return m.Called(ctx, snapshot).Error(0)
}

type mockInstaller struct {
	mock.Mock
}

func (m *mockInstaller) Install(ctx context.Context, contextID string) error {
	return m.Called(ctx, contextID).Error(0)
}

func Test_Background_GetEntityData(t *testing.T) {
	st := &mockStore{}
	entity := models.NewEntity("1", models.Counts{Applies: lo.ToPtr[int64](42)}, time.Now())
	st.On("Get", mock.Anything, "1").Return(&entity)
	st.On("Get", mock.Anything, "2").Return(nil)
	b := NewBackground(st, &mockInstaller{})

	hit := b.Handle(context.Background(), messaging.Message{Type: messaging.GetEntityData, EntityID: "1"})
	miss := b.Handle(context.Background(), messaging.Message{Type: messaging.GetEntityData, EntityID: "2"})

	assert.True(t, hit.OK)
	require.NotNil(t, hit.Counts)
	assert.Equal(t, int64(42), *hit.Counts.Applies)
	assert.Nil(t, hit.Counts.Views)
	assert.True(t, miss.OK)
	assert.Nil(t, miss.Counts)
}

func Test_Background_CacheEntityData_PassesCounts(t *testing.T) {
	st := &mockStore{}
	st.On("Put", mock.Anything, "1", models.Counts{Views: lo.ToPtr[int64](7)}).Return()
	b := NewBackground(st, &mockInstaller{})

	resp := b.Handle(context.Background(), messaging.Message{
		Type: messaging.CacheEntityData, EntityID: "1", Views: lo.ToPtr[int64](7),
	})

	assert.True(t, resp.OK)
	st.AssertExpectations(t)
}

func Test_Background_MissingEntityID_IsRejected(t *testing.T) {
	st := &mockStore{}
	b := NewBackground(st, &mockInstaller{})

	for _, msgType := range []messaging.Type{messaging.GetEntityData, messaging.CacheEntityData} {
		resp := b.Handle(context.Background(), messaging.Message{Type: msgType})
		assert.False(t, resp.OK)
		assert.NotEmpty(t, resp.Error)
	}
	st.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func Test_Background_UnknownType_IsRejected(t *testing.T) {
	b := NewBackground(&mockStore{}, &mockInstaller{})

	resp := b.Handle(context.Background(), messaging.Message{Type: "OPEN_POPUP"})

	assert.False(t, resp.OK)
	assert.Equal(t, "unknown message type", resp.Error)
}

func Test_Background_InstallFailure_IsReported(t *testing.T) {
	installer := &mockInstaller{}
	installer.On("Install", mock.Anything, "page-1").Return(errors.New("unknown page context"))
	installer.On("Install", mock.Anything, "page-2").Return(nil)
	b := NewBackground(&mockStore{}, installer)

	failed := b.Handle(context.Background(), messaging.Message{Type: messaging.RequestInterceptorInstall, TargetContextID: "page-1"})
	ok := b.Handle(context.Background(), messaging.Message{Type: messaging.RequestInterceptorInstall, TargetContextID: "page-2"})

	assert.False(t, failed.OK)
	assert.Equal(t, "unknown page context", failed.Error)
	assert.True(t, ok.OK)
}

func Test_Background_ImportWithoutData_IsRejected(t *testing.T) {
	st := &mockStore{}
	b := NewBackground(st, &mockInstaller{})

	resp := b.Handle(context.Background(), messaging.Message{Type: messaging.ImportData})

	assert.False(t, resp.OK)
	st.AssertNotCalled(t, "Import", mock.Anything, mock.Anything)
}

func Test_Background_EmptyImportSurvivesTheWire(t *testing.T) {
	st := &mockStore{}
	st.On("Import", mock.Anything, models.Snapshot{}).Return(nil)
	b := NewBackground(st, &mockInstaller{})

	encoded, err := json.Marshal(messaging.Message{Type: messaging.ImportData, Data: models.Snapshot{}})
	require.NoError(t, err)
	var decoded messaging.Message
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	resp := b.Handle(context.Background(), decoded)

	assert.True(t, resp.OK, resp.Error)
	st.AssertCalled(t, "Import", mock.Anything, models.Snapshot{})
}

func Test_Background_ImportFailure_IsReported(t *testing.T) {
	st := &mockStore{}
	st.On("Import", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	b := NewBackground(st, &mockInstaller{})

	resp := b.Handle(context.Background(), messaging.Message{Type: messaging.ImportData, Data: models.Snapshot{}})

	assert.False(t, resp.OK)
	assert.Equal(t, "disk full", resp.Error)
}

func Test_Background_OverLocalChannel_ExportImportIsIdempotent(t *testing.T) {
	cacheStore := store.New(config.CacheConfig{TTL: 30 * time.Minute, HistoryMax: 100, CleanupInterval: time.Minute}, nil)
	channel := messaging.NewLocalChannel(NewBackground(cacheStore, &mockInstaller{}))
	defer channel.Close()
	client := messaging.NewClient(channel)
	ctx := context.Background()

	require.NoError(t, client.CacheEntityData(ctx, "1", models.Counts{Applies: lo.ToPtr[int64](3)}))
	require.NoError(t, client.CacheEntityData(ctx, "2", models.Counts{Views: lo.ToPtr[int64](9)}))

	historyBefore, err := client.History(ctx)
	require.NoError(t, err)
	snapshot, err := client.Export(ctx)
	require.NoError(t, err)

	encoded, err := json.Marshal(snapshot)
	require.NoError(t, err)
	parsed, err := models.ParseSnapshot(encoded)
	require.NoError(t, err)
	require.NoError(t, client.Import(ctx, parsed))

	historyAfter, err := client.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, historyBefore, historyAfter)

	counts, err := client.GetEntityData(ctx, "2")
	require.NoError(t, err)
	require.NotNil(t, counts)
	assert.Equal(t, int64(9), *counts.Views)
	assert.Nil(t, counts.Applies)
}
