package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock, func() { db.Close() }
}

var studentRowColumns = []string{"id", "full_name", "mobile", "email", "password_hash", "address", "parent_name", "parent_mobile", "gender", "id_proof_type", "seat_number", "locker_required", "plan_type", "duration", "start_date", "end_date", "amount_paid", "assigned_slots", "is_active", "payment_mode", "created_at", "updated_at"}

func TestSQLRosterGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSQLRoster(db)

	now := time.Now()
	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("s1", "Asha", "9000000001", "", "hash", "", "", "", "F", "", 12, true, "8H", 3, now, now.AddDate(0, 3, 0), 2800, "S1,S2", true, "CASH", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + studentColumns + " FROM students WHERE id = $1 LIMIT 1")).
		WithArgs("s1").
		WillReturnRows(rows)

	student, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 12, student.SeatNumber)
	assert.Equal(t, models.Slots{models.SlotMorning, models.SlotAfternoon}, student.AssignedSlots)
	assert.Equal(t, models.Duration3Months, student.Duration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterGetMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSQLRoster(db)

	mock.ExpectQuery("FROM students WHERE id").WithArgs("nope").WillReturnRows(sqlmock.NewRows(studentRowColumns))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrStudentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterListPaginates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSQLRoster(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1 AND is_active = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE 1=1 AND is_active = $1 ORDER BY seat_number ASC, full_name ASC LIMIT $2 OFFSET $3")).
		WithArgs(true, 10, 10).
		WillReturnRows(sqlmock.NewRows(studentRowColumns))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Active: &active, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterInsertWritesClaims(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSQLRoster(db)

	student := rosterStudent("s1", "9000000001", 4, true, models.SlotMorning, models.SlotAfternoon)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_slots (seat_number, slot_id, student_id) VALUES ($1, $2, $3)")).
		WithArgs(4, "S1", "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_slots (seat_number, slot_id, student_id) VALUES ($1, $2, $3)")).
		WithArgs(4, "S2", "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_lockers (seat_number, student_id) VALUES ($1, $2)")).
		WithArgs(4, "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Mutate(context.Background(), func(tx RosterTx) error {
		return tx.Insert(context.Background(), &student)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterSlotCollisionRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSQLRoster(db)

	student := rosterStudent("s2", "9000000002", 4, false, models.SlotMorning)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO student_slots").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Mutate(context.Background(), func(tx RosterTx) error {
		return tx.Insert(context.Background(), &student)
	})
	var claim *SeatClaimError
	require.ErrorAs(t, err, &claim)
	assert.Equal(t, models.ConflictSlotOverlap, claim.Reason)
	assert.Equal(t, 4, claim.SeatNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterDuplicateMobile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSQLRoster(db)

	student := rosterStudent("s3", "9000000001", 5, false, models.SlotNight)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Mutate(context.Background(), func(tx RosterTx) error {
		return tx.Insert(context.Background(), &student)
	})
	assert.ErrorIs(t, err, ErrDuplicateMobile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterReplaceReissuesClaims(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSQLRoster(db)

	student := rosterStudent("s1", "9000000001", 6, false, models.SlotEvening)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE students SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM student_slots WHERE student_id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_lockers WHERE student_id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO student_slots").WithArgs(6, "S3", "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Mutate(context.Background(), func(tx RosterTx) error {
		if err := tx.Replace(context.Background(), &student); err != nil {
			return err
		}
		txn := models.NewTransaction("t1", models.TransactionRenewal, student)
		return tx.AppendTransaction(context.Background(), &txn)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterDeleteMissingIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSQLRoster(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM student_slots").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM seat_lockers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var deleted bool
	err := repo.Mutate(context.Background(), func(tx RosterTx) error {
		var err error
		deleted, err = tx.Delete(context.Background(), "ghost")
		return err
	})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterCommitFailureIsStorageError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSQLRoster(db)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(assert.AnError)

	err := repo.Mutate(context.Background(), func(RosterTx) error { return nil })
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
}

func TestAnnouncementRepositorySetReplacesRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM announcements WHERE id = $1")).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO announcements (id, message, is_active, updated_at) VALUES ($1, $2, $3, $4)")).
		WithArgs(1, "Closed Sunday", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Set(context.Background(), &models.Announcement{Message: "Closed Sunday", IsActive: true, UpdatedAt: time.Now()}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryGetDefaultsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectQuery("FROM announcements").WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"message", "is_active", "updated_at"}))

	a, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", a.Message)
	assert.False(t, a.IsActive)
}

func TestAdmissionRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "mobile", "email", "address", "parent_name", "parent_mobile", "gender", "id_proof_type", "plan_type", "preferred_slots", "locker_required", "status", "request_date"}).
		AddRow("r1", "Ravi", "9000000009", "", "", "", "", "M", "", "14H", "S1,S2,S3", false, "PENDING", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM admission_requests WHERE status = $1 ORDER BY request_date DESC")).
		WithArgs(models.AdmissionPending).
		WillReturnRows(rows)

	out, err := repo.List(context.Background(), models.AdmissionPending)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].PreferredSlots, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE admission_requests SET status = $1 WHERE id = $2")).
		WithArgs(models.AdmissionApproved, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "missing", models.AdmissionApproved), ErrNotFound)
}

func TestWifiRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWifiRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wifi_networks (id, ssid, password) VALUES ($1, $2, $3)")).
		WithArgs("w1", "Desk", "secret").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), &models.WifiNetwork{ID: "w1", SSID: "Desk", Password: "secret"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryImportRollsBackOnClaimCollision(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	snap := &models.Snapshot{Students: []models.Student{rosterStudent("a", "9000000001", 2, false, models.SlotMorning)}}

	mock.ExpectBegin()
	for _, table := range []string{"student_slots", "seat_lockers", "transactions", "students", "admission_requests", "wifi_networks"} {
		mock.ExpectExec("DELETE FROM " + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO student_slots").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	var claim *SeatClaimError
	require.ErrorAs(t, repo.Import(context.Background(), snap), &claim)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterReadFailuresAreStorageErrors(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSQLRoster(db)
	refused := errors.New("connection refused")

	mock.ExpectQuery("SELECT COUNT").WillReturnError(refused)
	_, _, err := repo.List(context.Background(), models.StudentFilter{})
	var storage *StorageError
	require.True(t, errors.As(err, &storage))
	assert.Equal(t, "count students", storage.Op)
	assert.ErrorIs(t, err, refused)

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .* FROM students").WillReturnError(refused)
	_, _, err = repo.List(context.Background(), models.StudentFilter{})
	require.True(t, errors.As(err, &storage))
	assert.Equal(t, "list students", storage.Op)

	mock.ExpectQuery("SELECT .* FROM transactions").WillReturnError(refused)
	_, err = repo.ListTransactions(context.Background(), models.TransactionFilter{})
	require.True(t, errors.As(err, &storage))
	assert.Equal(t, "list transactions", storage.Op)

	mock.ExpectQuery("SELECT .* FROM transactions WHERE id").WithArgs("t1").WillReturnError(refused)
	_, err = repo.GetTransaction(context.Background(), "t1")
	require.True(t, errors.As(err, &storage))
	assert.Equal(t, "get transaction", storage.Op)

	require.NoError(t, mock.ExpectationsWereMet())
}
