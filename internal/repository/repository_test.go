package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"course-marketplace/internal/client"
	"course-marketplace/internal/config"
	"course-marketplace/internal/model"
	"course-marketplace/internal/serverrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), "repo.db"))
}

func openTestDB(t *testing.T, url string) *gorm.DB {
	t.Helper()

	db, err := client.InitDBClient(config.Database{URL: url})
	if err != nil {
		t.Fatalf("InitDBClient() error = %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func seedCourse(t *testing.T, repo CourseRepository, creatorID, title string) *model.Course {
	t.Helper()

	course := &model.Course{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "about " + title,
		Price:       decimal.RequireFromString("50.00"),
		CreatorID:   creatorID,
	}
	if err := repo.Create(context.Background(), course); err != nil {
		t.Fatalf("Create course: %v", err)
	}
	return course
}

func TestCreateEntitlementUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewPurchaseRepository(newTestDB(t))

	first := &model.Purchase{LearnerID: "l-1", CourseID: "c-1", PaymentID: "pi_1", Amount: 5000, Currency: "usd"}
	if err := repo.CreateEntitlement(ctx, first); err != nil {
		t.Fatalf("first CreateEntitlement() error = %v", err)
	}
	if first.ID == 0 {
		t.Error("expected insertion id to be set")
	}

	dup := &model.Purchase{LearnerID: "l-1", CourseID: "c-1", PaymentID: "pi_2", Amount: 5000, Currency: "usd"}
	if err := repo.CreateEntitlement(ctx, dup); !errors.Is(err, serverrors.ErrAlreadyExists) {
		t.Fatalf("duplicate CreateEntitlement() error = %v, want ErrAlreadyExists", err)
	}

	got, err := repo.FindEntitlement(ctx, "l-1", "c-1")
	if err != nil {
		t.Fatalf("FindEntitlement() error = %v", err)
	}
	if got.PaymentID != "pi_1" {
		t.Errorf("stored payment id = %q, want the first one", got.PaymentID)
	}
}

func TestCreateEntitlementRedeemedPayment(t *testing.T) {
	ctx := context.Background()
	repo := NewPurchaseRepository(newTestDB(t))

	if err := repo.CreateEntitlement(ctx, &model.Purchase{LearnerID: "l-1", CourseID: "c-1", PaymentID: "pi_1", Amount: 5000, Currency: "usd"}); err != nil {
		t.Fatalf("first CreateEntitlement() error = %v", err)
	}

	for _, p := range []*model.Purchase{
		{LearnerID: "l-1", CourseID: "c-2", PaymentID: "pi_1", Amount: 5000, Currency: "usd"},
		{LearnerID: "l-2", CourseID: "c-1", PaymentID: "pi_1", Amount: 5000, Currency: "usd"},
	} {
		err := repo.CreateEntitlement(ctx, p)
		if !errors.Is(err, serverrors.ErrPaymentRedeemed) || !errors.Is(err, serverrors.ErrInvalidReceipt) {
			t.Errorf("CreateEntitlement(%s, %s) error = %v, want ErrPaymentRedeemed", p.LearnerID, p.CourseID, err)
		}
		if owned, _ := repo.HasEntitlement(ctx, p.LearnerID, p.CourseID); owned {
			t.Errorf("%s must not own %s through a spent payment", p.LearnerID, p.CourseID)
		}
	}
}

func TestCreateEntitlementConcurrent(t *testing.T) {
	ctx := context.Background()
	const workers = 16

	// InitDBClient keeps sqlite on one connection, which would queue these
	// inserts instead of racing them. Open the pool wide with WAL so each
	// worker writes from its own connection.
	db := openTestDB(t, filepath.Join(t.TempDir(), "repo.db")+"?_journal_mode=WAL&_txlock=immediate")
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}
	sqlDB.SetMaxOpenConns(workers)
	repo := NewPurchaseRepository(db)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		dupes   int
		others  []error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.CreateEntitlement(ctx, &model.Purchase{
				LearnerID: "l-1", CourseID: "c-1", PaymentID: uuid.NewString(), Amount: 5000, Currency: "usd",
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, serverrors.ErrAlreadyExists):
				dupes++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	if len(others) > 0 {
		t.Fatalf("unexpected errors: %v", others)
	}
	if created != 1 || dupes != workers-1 {
		t.Errorf("created = %d, duplicates = %d; want 1 and %d", created, dupes, workers-1)
	}

	purchases, err := repo.ListByLearner(ctx, "l-1")
	if err != nil {
		t.Fatalf("ListByLearner() error = %v", err)
	}
	if len(purchases) != 1 {
		t.Errorf("rows = %d, want 1", len(purchases))
	}
}

func TestHasEntitlementAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewPurchaseRepository(newTestDB(t))

	has, err := repo.HasEntitlement(ctx, "l-1", "c-1")
	if err != nil || has {
		t.Fatalf("HasEntitlement() on empty store = %v, %v", has, err)
	}

	for _, courseID := range []string{"c-2", "c-1", "c-3"} {
		if err := repo.CreateEntitlement(ctx, &model.Purchase{LearnerID: "l-1", CourseID: courseID, PaymentID: "pi_" + courseID, Amount: 100, Currency: "usd"}); err != nil {
			t.Fatalf("CreateEntitlement(%s): %v", courseID, err)
		}
	}
	if err := repo.CreateEntitlement(ctx, &model.Purchase{LearnerID: "l-2", CourseID: "c-1", PaymentID: "pi_l2", Amount: 100, Currency: "usd"}); err != nil {
		t.Fatalf("CreateEntitlement(l-2): %v", err)
	}

	has, err = repo.HasEntitlement(ctx, "l-1", "c-1")
	if err != nil || !has {
		t.Errorf("HasEntitlement(l-1, c-1) = %v, %v; want true", has, err)
	}

	purchases, err := repo.ListByLearner(ctx, "l-1")
	if err != nil {
		t.Fatalf("ListByLearner() error = %v", err)
	}
	var order []string
	for _, p := range purchases {
		order = append(order, p.CourseID)
	}
	if len(order) != 3 || order[0] != "c-2" || order[1] != "c-1" || order[2] != "c-3" {
		t.Errorf("ListByLearner order = %v, want insertion order [c-2 c-1 c-3]", order)
	}

	empty, err := repo.ListByLearner(ctx, "nobody")
	if err != nil || len(empty) != 0 {
		t.Errorf("ListByLearner(nobody) = %v, %v", empty, err)
	}

	if _, err := repo.FindEntitlement(ctx, "l-2", "c-2"); !errors.Is(err, serverrors.ErrNotFound) {
		t.Errorf("FindEntitlement missing = %v, want ErrNotFound", err)
	}
}

func TestCourseRepositoryOwnership(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(newTestDB(t))

	course := seedCourse(t, repo, "admin-a", "Go Basics")
	other := seedCourse(t, repo, "admin-b", "Rust Basics")

	got, err := repo.FindByID(ctx, course.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if !got.Price.Equal(decimal.RequireFromString("50")) {
		t.Errorf("price = %s, want 50", got.Price)
	}

	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, serverrors.ErrNotFound) {
		t.Errorf("FindByID unknown = %v, want ErrNotFound", err)
	}

	// another administrator cannot touch the course
	update := *course
	update.CreatorID = "admin-b"
	update.Title = "Hijacked"
	if err := repo.UpdateOwned(ctx, &update); !errors.Is(err, serverrors.ErrNotFound) {
		t.Errorf("UpdateOwned by non-owner = %v, want ErrNotFound", err)
	}
	if _, err := repo.DeleteOwned(ctx, course.ID, "admin-b"); !errors.Is(err, serverrors.ErrNotFound) {
		t.Errorf("DeleteOwned by non-owner = %v, want ErrNotFound", err)
	}

	course.Title = "Go Basics, 2nd edition"
	course.Price = decimal.RequireFromString("75.50")
	if err := repo.UpdateOwned(ctx, course); err != nil {
		t.Fatalf("UpdateOwned() error = %v", err)
	}
	got, _ = repo.FindOwned(ctx, course.ID, "admin-a")
	if got.Title != "Go Basics, 2nd edition" || !got.Price.Equal(decimal.RequireFromString("75.5")) {
		t.Errorf("update not applied: %+v", got)
	}

	many, err := repo.FindMany(ctx, []string{course.ID, other.ID, "missing"})
	if err != nil || len(many) != 2 {
		t.Errorf("FindMany() = %d courses, %v; want 2", len(many), err)
	}

	deleted, err := repo.DeleteOwned(ctx, course.ID, "admin-a")
	if err != nil {
		t.Fatalf("DeleteOwned() error = %v", err)
	}
	if deleted.ID != course.ID {
		t.Errorf("deleted id = %s, want %s", deleted.ID, course.ID)
	}

	all, _ := repo.List(ctx)
	if len(all) != 1 || all[0].ID != other.ID {
		t.Errorf("List() after delete = %+v", all)
	}
}

func TestAccountRepositoriesDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	learners := NewLearnerRepository(db)
	admins := NewAdminRepository(db)

	learner := &model.Learner{ID: uuid.NewString(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PasswordHash: "x"}
	if err := learners.Create(ctx, learner); err != nil {
		t.Fatalf("Create learner: %v", err)
	}
	again := &model.Learner{ID: uuid.NewString(), FirstName: "Ada", LastName: "L", Email: "ada@example.com", PasswordHash: "y"}
	if err := learners.Create(ctx, again); !errors.Is(err, serverrors.ErrEmailTaken) {
		t.Errorf("duplicate learner email = %v, want ErrEmailTaken", err)
	}

	// administrators are a separate identity space
	admin := &model.Administrator{ID: uuid.NewString(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PasswordHash: "z"}
	if err := admins.Create(ctx, admin); err != nil {
		t.Fatalf("Create admin with learner email: %v", err)
	}

	found, err := learners.FindByEmail(ctx, "ada@example.com")
	if err != nil || found.ID != learner.ID {
		t.Errorf("FindByEmail() = %+v, %v", found, err)
	}
	if _, err := learners.FindByID(ctx, admin.ID); !errors.Is(err, serverrors.ErrNotFound) {
		t.Errorf("admin id resolved as learner: %v", err)
	}
	if _, err := admins.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, serverrors.ErrNotFound) {
		t.Errorf("FindByEmail unknown admin = %v, want ErrNotFound", err)
	}
}
