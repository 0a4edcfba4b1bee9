package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

const admissionColumns = "id, full_name, mobile, email, address, parent_name, parent_mobile, gender, id_proof_type, plan_type, preferred_slots, locker_required, status, request_date"

// AdmissionRepository persists admission requests in SQL.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository creates the repository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// List returns requests, newest first. An empty status returns every request.
func (r *AdmissionRepository) List(ctx context.Context, status models.AdmissionStatus) ([]models.AdmissionRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM admission_requests", admissionColumns)
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY request_date DESC"

	var out []models.AdmissionRequest
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list admission requests: %w", err)
	}
	return out, nil
}

// Get returns one request.
func (r *AdmissionRepository) Get(ctx context.Context, id string) (*models.AdmissionRequest, error) {
	var req models.AdmissionRequest
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM admission_requests WHERE id = ?", admissionColumns))
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admission request: %w", err)
	}
	return &req, nil
}

// Create inserts a request.
func (r *AdmissionRepository) Create(ctx context.Context, req *models.AdmissionRequest) error {
	return insertAdmission(ctx, r.db, req)
}

func insertAdmission(ctx context.Context, exec sqlx.ExtContext, req *models.AdmissionRequest) error {
	const query = `INSERT INTO admission_requests (id, full_name, mobile, email, address, parent_name, parent_mobile, gender, id_proof_type, plan_type, preferred_slots, locker_required, status, request_date) VALUES (:id, :full_name, :mobile, :email, :address, :parent_name, :parent_mobile, :gender, :id_proof_type, :plan_type, :preferred_slots, :locker_required, :status, :request_date)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, req); err != nil {
		return fmt.Errorf("insert admission request: %w", err)
	}
	return nil
}

// UpdateStatus records the review outcome.
func (r *AdmissionRepository) UpdateStatus(ctx context.Context, id string, status models.AdmissionStatus) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE admission_requests SET status = ? WHERE id = ?"), status, id)
	if err != nil {
		return fmt.Errorf("update admission status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a request. Missing ids are ignored.
func (r *AdmissionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM admission_requests WHERE id = ?"), id); err != nil {
		return fmt.Errorf("delete admission request: %w", err)
	}
	return nil
}
