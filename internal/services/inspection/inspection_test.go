package inspection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateInspection(ctx context.Context, ins models.Inspection) (string, error) {
	args := m.Called(ctx, ins)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) ReadInspection(ctx context.Context, id string) (*models.Inspection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inspection), args.Error(1)
}

func (m *MockRepository) ListInspections(ctx context.Context, status, inspectorUID string, limit, offset int) ([]*models.Inspection, error) {
	args := m.Called(ctx, status, inspectorUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Inspection), args.Error(1)
}

func (m *MockRepository) UpdateInspection(ctx context.Context, id string, ins models.Inspection, changes []models.ChangelogEntry) (int, error) {
	args := m.Called(ctx, id, ins, changes)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) TransitionInspectionStatus(ctx context.Context, id, from, to string, reviewerUID *string) error {
	args := m.Called(ctx, id, from, to, reviewerUID)
	return args.Error(0)
}

func (m *MockRepository) SetInspectionMintFailed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) ListChangelog(ctx context.Context, inspectionID string) ([]*models.ChangelogEntry, error) {
	args := m.Called(ctx, inspectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ChangelogEntry), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishMintJob(job models.MintJob) error {
	args := m.Called(job)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreate_SetsNeedReview(t *testing.T) {
	repo := new(MockRepository)
	svc := NewInspectionService(repo, new(MockPublisher), discardLogger())

	repo.On("CreateInspection", mock.Anything, mock.MatchedBy(func(ins models.Inspection) bool {
		return ins.Status == models.StatusNeedReview && ins.InspectorUID == "insp-1"
	})).Return("ins-1", nil)

	id, err := svc.Create(context.Background(), models.DummyInspection{
		PlateNumber:   "AB1234CD",
		VehicleMake:   "Toyota",
		VehicleModel:  "Avanza",
		VehicleYear:   2019,
		OverallRating: 8,
		Summary:       json.RawMessage(`{"engine":"ok"}`),
	}, "insp-1")

	require.NoError(t, err)
	assert.Equal(t, "ins-1", id)
}

func TestUpdate_RecordsChangedFields(t *testing.T) {
	repo := new(MockRepository)
	svc := NewInspectionService(repo, new(MockPublisher), discardLogger())

	repo.On("ReadInspection", mock.Anything, "ins-1").Return(&models.Inspection{
		ID:            "ins-1",
		PlateNumber:   "AB1234CD",
		VehicleMake:   "Toyota",
		VehicleModel:  "Avanza",
		VehicleYear:   2019,
		OdometerKM:    50000,
		OverallRating: 8,
		Summary:       json.RawMessage(`{"engine":"ok","brakes":"worn"}`),
		Status:        models.StatusNeedReview,
	}, nil)

	repo.On("UpdateInspection", mock.Anything, "ins-1", mock.Anything,
		mock.MatchedBy(func(changes []models.ChangelogEntry) bool {
			fields := make(map[string]models.ChangelogEntry, len(changes))
			for _, c := range changes {
				if c.InspectionID != "ins-1" || c.ChangedBy != "insp-1" {
					return false
				}
				fields[c.FieldName] = c
			}
			odo, ok := fields["odometer_km"]
			if !ok || odo.OldValue != "50000" || odo.NewValue != "51000" {
				return false
			}
			brakes, ok := fields["summary.brakes"]
			if !ok || brakes.OldValue != `"worn"` || brakes.NewValue != `"replaced"` {
				return false
			}
			return len(changes) == 2
		})).Return(1, nil)

	err := svc.Update(context.Background(), "ins-1", models.DummyInspection{
		PlateNumber:   "AB1234CD",
		VehicleMake:   "Toyota",
		VehicleModel:  "Avanza",
		VehicleYear:   2019,
		OdometerKM:    51000,
		OverallRating: 8,
		Summary:       json.RawMessage(`{"engine":"ok","brakes":"replaced"}`),
	}, "insp-1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdate_WrongStatus(t *testing.T) {
	repo := new(MockRepository)
	svc := NewInspectionService(repo, new(MockPublisher), discardLogger())

	repo.On("ReadInspection", mock.Anything, "ins-1").Return(&models.Inspection{
		ID:     "ins-1",
		Status: models.StatusApproved,
	}, nil)

	err := svc.Update(context.Background(), "ins-1", models.DummyInspection{}, "insp-1")

	assert.ErrorIs(t, err, repository.ErrWrongStatus)
	repo.AssertNotCalled(t, "UpdateInspection", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReview_Approve(t *testing.T) {
	repo := new(MockRepository)
	svc := NewInspectionService(repo, new(MockPublisher), discardLogger())

	reviewer := "rev-1"
	repo.On("TransitionInspectionStatus", mock.Anything, "ins-1",
		models.StatusNeedReview, models.StatusApproved, &reviewer).Return(nil)

	status, err := svc.Review(context.Background(), "ins-1", "rev-1", "approve")

	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, status)
}

func TestReview_Reject(t *testing.T) {
	repo := new(MockRepository)
	svc := NewInspectionService(repo, new(MockPublisher), discardLogger())

	reviewer := "rev-1"
	repo.On("TransitionInspectionStatus", mock.Anything, "ins-1",
		models.StatusNeedReview, models.StatusRejected, &reviewer).Return(nil)

	status, err := svc.Review(context.Background(), "ins-1", "rev-1", "reject")

	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, status)
}

func TestArchive_PublishesMintJob(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	svc := NewInspectionService(repo, pub, discardLogger())

	repo.On("TransitionInspectionStatus", mock.Anything, "ins-1",
		models.StatusApproved, models.StatusArchiving, (*string)(nil)).Return(nil)
	pub.On("PublishMintJob", models.MintJob{InspectionID: "ins-1"}).Return(nil)

	err := svc.Archive(context.Background(), "ins-1")

	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestArchive_PublishFails(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	svc := NewInspectionService(repo, pub, discardLogger())

	repo.On("TransitionInspectionStatus", mock.Anything, "ins-1",
		models.StatusApproved, models.StatusArchiving, (*string)(nil)).Return(nil)
	pub.On("PublishMintJob", models.MintJob{InspectionID: "ins-1"}).Return(errors.New("broker down"))
	repo.On("SetInspectionMintFailed", mock.Anything, "ins-1").Return(nil)

	err := svc.Archive(context.Background(), "ins-1")

	require.Error(t, err)
	repo.AssertCalled(t, "SetInspectionMintFailed", mock.Anything, "ins-1")
}
