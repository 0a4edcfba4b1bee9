package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

const studentColumns = "id, full_name, mobile, email, password_hash, address, parent_name, parent_mobile, gender, id_proof_type, seat_number, locker_required, plan_type, duration, start_date, end_date, amount_paid, assigned_slots, is_active, payment_mode, created_at, updated_at"

const transactionColumns = "id, student_id, student_name, seat_number, type, amount, date, plan_type, duration, payment_mode"

// SQLRoster stores the roster in relational tables. Slot and locker claims live in
// student_slots and seat_lockers whose primary keys reject double bookings.
type SQLRoster struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLRoster constructs a SQLRoster.
func NewSQLRoster(db *sqlx.DB) *SQLRoster {
	return &SQLRoster{db: db, now: time.Now}
}

// List returns students matching the provided filters.
func (r *SQLRoster) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Active != nil {
		conditions = append(conditions, "is_active = ?")
		args = append(args, *filter.Active)
	}
	if filter.Seat > 0 {
		conditions = append(conditions, "seat_number = ?")
		args = append(args, filter.Seat)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(LOWER(full_name) LIKE ? OR mobile LIKE ?)")
		like := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, like, like)
	}
	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := r.db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM students WHERE %s", where))
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, storageErr("count students", err)
	}

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY seat_number ASC, full_name ASC", studentColumns, where)
	if filter.Page > 0 && filter.PageSize > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	}

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, r.db.Rebind(query), args...); err != nil {
		return nil, 0, storageErr("list students", err)
	}
	return students, total, nil
}

// Get returns a student by id.
func (r *SQLRoster) Get(ctx context.Context, id string) (*models.Student, error) {
	return getStudent(ctx, r.db, "id", id)
}

// FindByMobile returns a student by login mobile.
func (r *SQLRoster) FindByMobile(ctx context.Context, mobile string) (*models.Student, error) {
	return getStudent(ctx, r.db, "mobile", mobile)
}

func getStudent(ctx context.Context, q sqlx.ExtContext, column, value string) (*models.Student, error) {
	var student models.Student
	query := q.Rebind(fmt.Sprintf("SELECT %s FROM students WHERE %s = ? LIMIT 1", studentColumns, column))
	if err := sqlx.GetContext(ctx, q, &student, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, storageErr("get student", err)
	}
	return &student, nil
}

// ListTransactions returns ledger entries, newest first.
func (r *SQLRoster) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		conditions = append(conditions, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, filter.Type)
	}
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE %s ORDER BY date DESC, id DESC", transactionColumns, strings.Join(conditions, " AND "))

	var txns []models.Transaction
	if err := r.db.SelectContext(ctx, &txns, r.db.Rebind(query), args...); err != nil {
		return nil, storageErr("list transactions", err)
	}
	return txns, nil
}

// GetTransaction returns one ledger entry.
func (r *SQLRoster) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var txn models.Transaction
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM transactions WHERE id = ? LIMIT 1", transactionColumns))
	if err := r.db.GetContext(ctx, &txn, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get transaction", err)
	}
	return &txn, nil
}

// Mutate runs fn inside a database transaction.
func (r *SQLRoster) Mutate(ctx context.Context, fn func(tx RosterTx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("begin roster transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&sqlRosterTx{tx: tx, now: r.now}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return storageErr("commit roster transaction", err)
	}
	return nil
}

type sqlRosterTx struct {
	tx  *sqlx.Tx
	now func() time.Time
}

func (t *sqlRosterTx) Get(ctx context.Context, id string) (*models.Student, error) {
	return getStudent(ctx, t.tx, "id", id)
}

func (t *sqlRosterTx) FindByMobile(ctx context.Context, mobile string) (*models.Student, error) {
	return getStudent(ctx, t.tx, "mobile", mobile)
}

func (t *sqlRosterTx) ListActiveBySeat(ctx context.Context, seat int) ([]models.Student, error) {
	var students []models.Student
	query := t.tx.Rebind(fmt.Sprintf("SELECT %s FROM students WHERE seat_number = ? AND is_active = ?", studentColumns))
	if err := t.tx.SelectContext(ctx, &students, query, seat, true); err != nil {
		return nil, storageErr("list seat occupants", err)
	}
	return students, nil
}

func (t *sqlRosterTx) Insert(ctx context.Context, student *models.Student) error {
	now := t.now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	return insertStudent(ctx, t.tx, student)
}

func insertStudent(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	const query = `INSERT INTO students (id, full_name, mobile, email, password_hash, address, parent_name, parent_mobile, gender, id_proof_type, seat_number, locker_required, plan_type, duration, start_date, end_date, amount_paid, assigned_slots, is_active, payment_mode, created_at, updated_at) VALUES (:id, :full_name, :mobile, :email, :password_hash, :address, :parent_name, :parent_mobile, :gender, :id_proof_type, :seat_number, :locker_required, :plan_type, :duration, :start_date, :end_date, :amount_paid, :assigned_slots, :is_active, :payment_mode, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, student); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMobile
		}
		return storageErr("insert student", err)
	}
	return insertClaims(ctx, exec, student)
}

func (t *sqlRosterTx) Replace(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = t.now().UTC()
	const query = `UPDATE students SET full_name = :full_name, mobile = :mobile, email = :email, password_hash = :password_hash, address = :address, parent_name = :parent_name, parent_mobile = :parent_mobile, gender = :gender, id_proof_type = :id_proof_type, seat_number = :seat_number, locker_required = :locker_required, plan_type = :plan_type, duration = :duration, start_date = :start_date, end_date = :end_date, amount_paid = :amount_paid, assigned_slots = :assigned_slots, is_active = :is_active, payment_mode = :payment_mode, updated_at = :updated_at WHERE id = :id`
	res, err := t.tx.NamedExecContext(ctx, query, student)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMobile
		}
		return storageErr("update student", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrStudentNotFound
	}
	if err := deleteClaims(ctx, t.tx, student.ID); err != nil {
		return err
	}
	return insertClaims(ctx, t.tx, student)
}

func (t *sqlRosterTx) Delete(ctx context.Context, id string) (bool, error) {
	if err := deleteClaims(ctx, t.tx, id); err != nil {
		return false, err
	}
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind("DELETE FROM students WHERE id = ?"), id)
	if err != nil {
		return false, storageErr("delete student", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("delete student", err)
	}
	return affected > 0, nil
}

func (t *sqlRosterTx) AppendTransaction(ctx context.Context, txn *models.Transaction) error {
	return insertTransaction(ctx, t.tx, txn)
}

func insertTransaction(ctx context.Context, exec sqlx.ExtContext, txn *models.Transaction) error {
	const query = `INSERT INTO transactions (id, student_id, student_name, seat_number, type, amount, date, plan_type, duration, payment_mode) VALUES (:id, :student_id, :student_name, :seat_number, :type, :amount, :date, :plan_type, :duration, :payment_mode)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, txn); err != nil {
		return storageErr("append transaction", err)
	}
	return nil
}

// insertClaims writes the seat claims of an active student; key collisions mean a double booking.
func insertClaims(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	if !student.IsActive {
		return nil
	}
	slotQuery := exec.Rebind("INSERT INTO student_slots (seat_number, slot_id, student_id) VALUES (?, ?, ?)")
	for _, slot := range student.AssignedSlots {
		if _, err := exec.ExecContext(ctx, slotQuery, student.SeatNumber, string(slot), student.ID); err != nil {
			if isUniqueViolation(err) {
				return &SeatClaimError{SeatNumber: student.SeatNumber, Reason: models.ConflictSlotOverlap, Err: err}
			}
			return storageErr("claim slot", err)
		}
	}
	if student.LockerRequired {
		lockerQuery := exec.Rebind("INSERT INTO seat_lockers (seat_number, student_id) VALUES (?, ?)")
		if _, err := exec.ExecContext(ctx, lockerQuery, student.SeatNumber, student.ID); err != nil {
			if isUniqueViolation(err) {
				return &SeatClaimError{SeatNumber: student.SeatNumber, Reason: models.ConflictLockerOverlap, Err: err}
			}
			return storageErr("claim locker", err)
		}
	}
	return nil
}

func deleteClaims(ctx context.Context, exec sqlx.ExtContext, studentID string) error {
	if _, err := exec.ExecContext(ctx, exec.Rebind("DELETE FROM student_slots WHERE student_id = ?"), studentID); err != nil {
		return storageErr("release slots", err)
	}
	if _, err := exec.ExecContext(ctx, exec.Rebind("DELETE FROM seat_lockers WHERE student_id = ?"), studentID); err != nil {
		return storageErr("release locker", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}
