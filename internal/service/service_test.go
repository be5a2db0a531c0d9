package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/notification"
	"github.com/sefazor/events-backend/internal/permission"
	"github.com/sefazor/events-backend/internal/repository"
	"github.com/sefazor/events-backend/internal/testdb"
	"github.com/sefazor/events-backend/pkg/jwt"
	"github.com/sefazor/events-backend/pkg/storage"
	"github.com/sefazor/events-backend/pkg/utils"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notification.Notification
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n notification.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n)
	return nil
}

type fixture struct {
	users         *UserService
	auth          *AuthService
	events        *EventService
	registrations *RegistrationService
	reviews       *ReviewService

	userRepo        *repository.UserRepository
	eventRepo       *repository.EventRepository
	participantRepo *repository.ParticipantRepository
	reviewRepo      *repository.ReviewRepository
	files           *storage.LocalStorage
	notifier        *recordingDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	logger := zaptest.NewLogger(t)

	files, err := storage.NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)

	f := &fixture{
		userRepo:        repository.NewUserRepository(db),
		eventRepo:       repository.NewEventRepository(db),
		participantRepo: repository.NewParticipantRepository(db),
		reviewRepo:      repository.NewReviewRepository(db),
		files:           files,
		notifier:        &recordingDispatcher{},
	}
	validator := utils.NewValidator()
	f.users = NewUserService(f.userRepo, f.reviewRepo, files, validator, logger)
	f.events = NewEventService(f.eventRepo, f.participantRepo, validator, logger)
	f.registrations = NewRegistrationService(f.eventRepo, f.participantRepo, f.notifier, logger)
	f.reviews = NewReviewService(f.reviewRepo, f.eventRepo,
		NewReviewEligibility(f.eventRepo, f.participantRepo, f.reviewRepo), files, f.notifier, validator, logger)
	return f
}

func (f *fixture) user(t *testing.T, name string, moderator bool) permission.Caller {
	t.Helper()
	req := models.CreateUserRequest{
		Username: name,
		Email:    name + "@example.com",
		Password: "password123",
	}
	var (
		u   *models.User
		err error
	)
	if moderator {
		u, err = f.users.CreateModerator(context.Background(), req)
	} else {
		u, err = f.users.CreateUser(context.Background(), permission.Anonymous(), req)
	}
	require.NoError(t, err)
	return permission.FromUser(u)
}

func (f *fixture) event(t *testing.T, owner permission.Caller, startAt time.Time) *models.Event {
	t.Helper()
	e, err := f.eventRepo.Create(context.Background(), &models.Event{
		UserID:      owner.ID,
		Title:       "Go meetup",
		Type:        models.EventTypeLocal,
		Address:     "Main st. 1",
		Description: "talks",
		StartAt:     startAt,
	})
	require.NoError(t, err)
	return e
}

func eventRequest(startAt time.Time) models.EventRequest {
	return models.EventRequest{
		Title:       "Go meetup",
		Type:        models.EventTypeRegional,
		Address:     "Main st. 1",
		Description: "talks",
		StartAt:     startAt,
	}
}

func requireValidation(t *testing.T, err error, message string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.Equal(t, message, verr.Message)
}

func TestValidateStartAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateStartAt(now.Add(time.Second), now))

	err := ValidateStartAt(now, now)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "start_at", verr.Field)
	assert.Contains(t, verr.Message, "2024-05-01T12:00:00Z")

	assert.Error(t, ValidateStartAt(now.Add(-time.Hour), now))
}

func TestSelectEventView(t *testing.T) {
	event := &models.Event{ID: 1, UserID: 10}

	assert.Equal(t, ViewWithParticipants, SelectEventView(permission.Caller{ID: 10, IsModerator: true}, event))
	assert.Equal(t, ViewWithoutParticipants, SelectEventView(permission.Caller{ID: 11, IsModerator: true}, event))
	assert.Equal(t, ViewWithoutParticipants, SelectEventView(permission.Caller{ID: 10}, event))
	assert.Equal(t, ViewWithoutParticipants, SelectEventView(permission.Anonymous(), event))
}

func TestUserService_CreateForcesModeratorFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	yes := true

	u, err := f.users.CreateUser(ctx, permission.Anonymous(), models.CreateUserRequest{
		Username: "sneaky", Email: "sneaky@example.com", Password: "password123", IsModerator: &yes,
	})
	require.NoError(t, err)
	assert.False(t, u.IsModerator)
	assert.NotEqual(t, "password123", u.Password)

	mod := f.user(t, "mod", true)
	u, err = f.users.CreateUser(ctx, mod, models.CreateUserRequest{
		Username: "mod2", Email: "mod2@example.com", Password: "password123", IsModerator: &yes,
	})
	require.NoError(t, err)
	assert.True(t, u.IsModerator)

	_, err = f.users.CreateUser(ctx, permission.Anonymous(), models.CreateUserRequest{
		Username: "mod2", Email: "other@example.com", Password: "password123",
	})
	requireValidation(t, err, msgUserExists)
}

func TestUserService_UpdateOwnRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	bob := f.user(t, "bob", false)

	email := "alice@new.example.com"
	no := false

	_, err := f.users.UpdateUser(ctx, alice, alice.ID, models.UpdateUserRequest{Email: &email, IsModerator: &no})
	assert.ErrorIs(t, err, ErrForbidden)

	u, err := f.users.UpdateUser(ctx, alice, alice.ID, models.UpdateUserRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, u.Email)

	_, err = f.users.UpdateUser(ctx, bob, alice.ID, models.UpdateUserRequest{Email: &email})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.users.UpdateUser(ctx, permission.Anonymous(), alice.ID, models.UpdateUserRequest{Email: &email})
	assert.ErrorIs(t, err, ErrForbidden)

	taken := "bob@example.com"
	_, err = f.users.UpdateUser(ctx, alice, alice.ID, models.UpdateUserRequest{Email: &taken})
	requireValidation(t, err, msgUserExists)

	mod := f.user(t, "mod", true)
	yes := true
	u, err = f.users.UpdateUser(ctx, mod, alice.ID, models.UpdateUserRequest{IsModerator: &yes})
	require.NoError(t, err)
	assert.True(t, u.IsModerator)
}

func TestUserService_GetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	mod := f.user(t, "mod", true)

	_, err := f.users.GetUser(ctx, alice, mod.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.users.GetUser(ctx, alice, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	u, err := f.users.GetUser(ctx, alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = f.users.ListUsers(ctx, alice, models.PageRequest{})
	assert.ErrorIs(t, err, ErrForbidden)

	page, err := f.users.ListUsers(ctx, mod, models.PageRequest{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Count)
	assert.Len(t, page.Results, 1)
}

func TestUserService_DeleteRemovesAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	alice := f.user(t, "alice", false)
	event := f.event(t, mod, time.Now().Add(time.Hour))

	require.NoError(t, f.participantRepo.Create(ctx, &models.EventParticipant{UserID: alice.ID, EventID: event.ID}))
	event.StartAt = time.Now().Add(-time.Hour)
	require.NoError(t, f.eventRepo.Update(ctx, event))

	review, err := f.reviews.CreateReview(ctx, alice, event.ID, models.ReviewRequest{Text: "great"}, attachment("photo.JPG", "jpeg bytes"))
	require.NoError(t, err)
	path := filepath.Join(f.files.Root(), filepath.FromSlash(review.File))
	require.FileExists(t, path)

	require.NoError(t, f.users.DeleteUser(ctx, alice, alice.ID))
	assert.NoFileExists(t, path)

	exists, err := f.participantRepo.Exists(ctx, alice.ID, event.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAuthService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.auth = NewAuthService(f.userRepo, newTokenManager(), zaptest.NewLogger(t))
	alice := f.user(t, "alice", false)

	_, err := f.auth.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, models.LoginRequest{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := f.auth.Login(ctx, models.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, resp.User.ID)

	caller, err := f.auth.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, caller.ID)
	assert.False(t, caller.IsModerator)

	// Role changes apply to tokens issued earlier.
	mod := f.user(t, "mod", true)
	yes := true
	_, err = f.users.UpdateUser(ctx, mod, alice.ID, models.UpdateUserRequest{IsModerator: &yes})
	require.NoError(t, err)
	caller, err = f.auth.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.True(t, caller.IsModerator)

	_, err = f.auth.Authenticate(ctx, "garbage")
	assert.Error(t, err)

	// Accounts without a bcrypt hash cannot log in.
	require.NoError(t, f.userRepo.Create(ctx, &models.User{
		Username: "legacy",
		Email:    "legacy@example.com",
		Password: "password123",
	}))
	_, err = f.auth.Login(ctx, models.LoginRequest{Username: "legacy", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEventService_CreateRequiresFutureStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	alice := f.user(t, "alice", false)

	_, err := f.events.CreateEvent(ctx, mod, eventRequest(time.Now().Add(-time.Minute)))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "start_at", verr.Field)

	_, err = f.events.CreateEvent(ctx, alice, eventRequest(time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.events.CreateEvent(ctx, permission.Anonymous(), eventRequest(time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrForbidden)

	event, err := f.events.CreateEvent(ctx, mod, eventRequest(time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, mod.ID, event.UserID)
}

func TestEventService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	other := f.user(t, "other", true)
	event := f.event(t, mod, time.Now().Add(-time.Hour))

	title := "Renamed"
	updated, err := f.events.UpdateEvent(ctx, other, event.ID, models.UpdateEventRequest{Title: &title})
	require.NoError(t, err, "past start_at is kept when the request does not change it")
	assert.Equal(t, "Renamed", updated.Title)

	past := time.Now().Add(-time.Minute)
	_, err = f.events.UpdateEvent(ctx, mod, event.ID, models.UpdateEventRequest{StartAt: &past})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.events.UpdateEvent(ctx, mod, 999, models.UpdateEventRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.events.UpdateEvent(ctx, permission.Anonymous(), 999, models.UpdateEventRequest{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEventService_DetailShowsParticipantsToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", true)
	other := f.user(t, "other", true)
	alice := f.user(t, "alice", false)
	event := f.event(t, owner, time.Now().Add(time.Hour))

	detail, err := f.events.GetEvent(ctx, owner, event.ID)
	require.NoError(t, err)
	resp, ok := detail.Response().(models.EventDetailResponse)
	require.True(t, ok)
	assert.NotNil(t, resp.Participants)
	assert.Empty(t, resp.Participants)

	_, err = f.registrations.Toggle(ctx, alice, event.ID)
	require.NoError(t, err)

	detail, err = f.events.GetEvent(ctx, owner, event.ID)
	require.NoError(t, err)
	resp = detail.Response().(models.EventDetailResponse)
	require.Len(t, resp.Participants, 1)
	assert.Equal(t, "alice", resp.Participants[0].Username)

	for _, caller := range []permission.Caller{other, alice, permission.Anonymous()} {
		detail, err = f.events.GetEvent(ctx, caller, event.ID)
		require.NoError(t, err)
		_, ok := detail.Response().(models.EventResponse)
		assert.True(t, ok)
		assert.Nil(t, detail.Participants)
	}

	_, err = f.events.GetEvent(ctx, owner, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventService_DeleteWithParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	alice := f.user(t, "alice", false)
	event := f.event(t, mod, time.Now().Add(time.Hour))

	_, err := f.registrations.Toggle(ctx, alice, event.ID)
	require.NoError(t, err)

	err = f.events.DeleteEvent(ctx, mod, event.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.registrations.Toggle(ctx, alice, event.ID)
	require.NoError(t, err)
	require.NoError(t, f.events.DeleteEvent(ctx, mod, event.ID))

	assert.ErrorIs(t, f.events.DeleteEvent(ctx, mod, event.ID), ErrNotFound)
	assert.ErrorIs(t, f.events.DeleteEvent(ctx, alice, event.ID), ErrForbidden)
}

func TestEventService_ListAndMyEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	alice := f.user(t, "alice", false)
	later := f.event(t, mod, time.Now().Add(2*time.Hour))
	sooner := f.event(t, mod, time.Now().Add(time.Hour))

	page, err := f.events.ListEvents(ctx, models.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Count)
	assert.Equal(t, sooner.ID, page.Results[0].ID)

	_, err = f.registrations.Toggle(ctx, alice, later.ID)
	require.NoError(t, err)

	mine, err := f.events.MyEvents(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, later.ID, mine[0].ID)

	_, err = f.events.MyEvents(ctx, mod)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.events.MyEvents(ctx, permission.Anonymous())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRegistrationService_Toggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	alice := f.user(t, "alice", false)
	event := f.event(t, mod, time.Now().Add(time.Hour))

	status, err := f.registrations.Toggle(ctx, alice, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCreated, status)

	count, err := f.participantRepo.CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.Len(t, f.notifier.sent, 1)
	n := f.notifier.sent[0]
	assert.Equal(t, notification.KindRegistration, n.Kind)
	assert.Equal(t, "mod@example.com", n.Recipient)
	assert.Equal(t, "alice@example.com", n.Submitter)
	assert.Equal(t, event.Title, n.EventTitle)

	status, err = f.registrations.Toggle(ctx, alice, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationWithdrawn, status)

	count, err = f.participantRepo.CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Len(t, f.notifier.sent, 1, "withdrawal does not notify")
}

func TestRegistrationService_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	alice := f.user(t, "alice", false)
	event := f.event(t, mod, time.Now().Add(time.Hour))

	_, err := f.registrations.Toggle(ctx, mod, event.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.registrations.Toggle(ctx, permission.Anonymous(), event.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.registrations.Toggle(ctx, alice, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	// A failed notification leaves no registration behind, so a retry
	// registers again instead of withdrawing.
	f.notifier.err = errors.New("mail server down")
	_, err = f.registrations.Toggle(ctx, alice, event.ID)
	assert.EqualError(t, err, "mail server down")
	registered, err := f.participantRepo.Exists(ctx, alice.ID, event.ID)
	require.NoError(t, err)
	assert.False(t, registered)

	f.notifier.err = nil
	status, err := f.registrations.Toggle(ctx, alice, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCreated, status)
}

func TestRegistrationService_ConcurrentToggleNeverDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	alice := f.user(t, "alice", false)
	event := f.event(t, mod, time.Now().Add(time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.registrations.Toggle(ctx, alice, event.ID)
			if err != nil {
				assert.ErrorIs(t, err, ErrConflict)
			}
		}()
	}
	wg.Wait()

	count, err := f.participantRepo.CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, count, int64(1))
}

func TestReviewEligibility_Order(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	alice := f.user(t, "alice", false)
	future := f.event(t, mod, time.Now().Add(time.Hour))
	past := f.event(t, mod, time.Now().Add(-time.Hour))
	check := NewReviewEligibility(f.eventRepo, f.participantRepo, f.reviewRepo)

	_, err := check.Check(ctx, alice.ID, 999, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = check.Check(ctx, alice.ID, past.ID, time.Now())
	requireValidation(t, err, msgNotRegistered)

	require.NoError(t, f.participantRepo.Create(ctx, &models.EventParticipant{UserID: alice.ID, EventID: future.ID}))
	_, err = check.Check(ctx, alice.ID, future.ID, time.Now())
	requireValidation(t, err, msgNotOccurred)

	event, err := check.Check(ctx, alice.ID, future.ID, future.StartAt.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "mod@example.com", event.User.Email)

	// An existing review is reported before the missing registration.
	require.NoError(t, f.reviewRepo.Create(ctx, &models.Review{
		Text: "seeded", AuthorID: alice.ID, EventID: past.ID, PubDate: time.Now(),
	}))
	_, err = check.Check(ctx, alice.ID, past.ID, time.Now())
	requireValidation(t, err, msgAlreadyReviewed)
}

func TestReviewService_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	alice := f.user(t, "alice", false)
	bob := f.user(t, "bob", false)
	event := f.event(t, mod, time.Now().Add(-time.Hour))
	require.NoError(t, f.participantRepo.Create(ctx, &models.EventParticipant{UserID: alice.ID, EventID: event.ID}))

	review, err := f.reviews.CreateReview(ctx, alice, event.ID, models.ReviewRequest{Text: "good"}, attachment("a.png", "first"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(review.File, "reviews/"))
	assert.True(t, strings.HasSuffix(review.File, ".png"))
	oldPath := filepath.Join(f.files.Root(), filepath.FromSlash(review.File))

	text := "better"
	_, err = f.reviews.UpdateReview(ctx, bob, event.ID, review.ID, models.UpdateReviewRequest{Text: &text}, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.reviews.UpdateReview(ctx, mod, event.ID, review.ID, models.UpdateReviewRequest{Text: &text}, nil)
	assert.ErrorIs(t, err, ErrForbidden, "moderators have no override on reviews")
	_, err = f.reviews.UpdateReview(ctx, alice, event.ID, 999, models.UpdateReviewRequest{Text: &text}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := f.reviews.UpdateReview(ctx, alice, event.ID, review.ID, models.UpdateReviewRequest{Text: &text}, attachment("b.png", "second"))
	require.NoError(t, err)
	assert.Equal(t, "better", updated.Text)
	assert.NotEqual(t, review.File, updated.File)
	assert.NoFileExists(t, oldPath)

	stored, err := f.reviews.GetReview(ctx, event.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "better", stored.Text)
	assert.True(t, review.PubDate.Equal(stored.PubDate))
	assert.Equal(t, "/media/"+stored.File, f.reviews.Response(stored).File)

	assert.ErrorIs(t, f.reviews.DeleteReview(ctx, permission.Anonymous(), event.ID, review.ID), ErrForbidden)
	assert.ErrorIs(t, f.reviews.DeleteReview(ctx, bob, event.ID, review.ID), ErrForbidden)
	require.NoError(t, f.reviews.DeleteReview(ctx, alice, event.ID, review.ID))
	assert.NoFileExists(t, filepath.Join(f.files.Root(), filepath.FromSlash(updated.File)))

	_, err = f.reviews.GetReview(ctx, event.ID, review.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewService_CreateRolledBackWhenNotificationFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	alice := f.user(t, "alice", false)
	event := f.event(t, mod, time.Now().Add(-time.Hour))
	require.NoError(t, f.participantRepo.Create(ctx, &models.EventParticipant{UserID: alice.ID, EventID: event.ID}))

	f.notifier.err = errors.New("mail server down")
	_, err := f.reviews.CreateReview(ctx, alice, event.ID, models.ReviewRequest{Text: "great"}, attachment("a.png", "first"))
	assert.EqualError(t, err, "mail server down")

	exists, err := f.reviewRepo.Exists(ctx, alice.ID, event.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	leftovers, err := filepath.Glob(filepath.Join(f.files.Root(), "reviews", "*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	f.notifier.err = nil
	review, err := f.reviews.CreateReview(ctx, alice, event.ID, models.ReviewRequest{Text: "great"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "great", review.Text)
	assert.Len(t, f.notifier.sent, 1)
}

func TestReviewService_ListRequiresEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reviews.ListReviews(ctx, 999, models.PageRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	mod := f.user(t, "mod", true)
	event := f.event(t, mod, time.Now())
	page, err := f.reviews.ListReviews(ctx, event.ID, models.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.NotNil(t, page.Results)
}

func TestReviewService_ModeratorCannotReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	event := f.event(t, mod, time.Now().Add(-time.Hour))

	_, err := f.reviews.CreateReview(ctx, mod, event.ID, models.ReviewRequest{Text: "mine"}, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.reviews.CreateReview(ctx, permission.Anonymous(), event.ID, models.ReviewRequest{Text: "anon"}, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEndToEnd_RegisterThenReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mod := f.user(t, "mod", true)
	alice := f.user(t, "alice", false)

	event, err := f.events.CreateEvent(ctx, mod, eventRequest(time.Date(3022, 12, 12, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	status, err := f.registrations.Toggle(ctx, alice, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCreated, status)
	require.Len(t, f.notifier.sent, 1)

	_, err = f.reviews.CreateReview(ctx, alice, event.ID, models.ReviewRequest{Text: "too early"}, nil)
	requireValidation(t, err, msgNotOccurred)

	// Move the event into the past directly, skipping the future-only check.
	event.StartAt = time.Now().Add(-24 * time.Hour)
	require.NoError(t, f.eventRepo.Update(ctx, event))

	review, err := f.reviews.CreateReview(ctx, alice, event.ID, models.ReviewRequest{Text: "nice"}, nil)
	require.NoError(t, err)
	assert.Empty(t, f.reviews.Response(review).File)
	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, notification.KindReview, f.notifier.sent[1].Kind)
	assert.Equal(t, "mod@example.com", f.notifier.sent[1].Recipient)

	_, err = f.reviews.CreateReview(ctx, alice, event.ID, models.ReviewRequest{Text: "again"}, nil)
	requireValidation(t, err, msgAlreadyReviewed)

	page, err := f.reviews.ListReviews(ctx, event.ID, models.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Count)
}

type memFile struct {
	*strings.Reader
}

func (memFile) Close() error { return nil }

func attachment(name, body string) *models.Attachment {
	return &models.Attachment{
		Filename:    name,
		ContentType: "application/octet-stream",
		Size:        int64(len(body)),
		Open: func() (io.ReadSeekCloser, error) {
			return memFile{strings.NewReader(body)}, nil
		},
	}
}

func newTokenManager() *jwt.Manager {
	return jwt.NewManager("test-secret", time.Hour)
}
