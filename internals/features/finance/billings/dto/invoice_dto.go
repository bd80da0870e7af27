package dto

import (
	"strings"
	"time"

	"pesantrenku_backend/internals/features/finance/billings/model"
	"pesantrenku_backend/internals/features/finance/billings/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/samber/lo"
)

/* =========================================================
   INVOICE: request
========================================================= */

// Kosongkan selected_student_ids untuk broadcast ke seluruh santri aktif di unit.
type CreateInvoiceRequest struct {
	UnitCode           string          `json:"invoice_unit_code" validate:"required,max=40"`
	Title              string          `json:"invoice_title" validate:"required,max=200"`
	Nominal            decimal.Decimal `json:"invoice_nominal"`
	DueDate            *time.Time      `json:"invoice_due_date"`
	Note               *string         `json:"invoice_note" validate:"omitempty,max=1000"`
	SelectedStudentIDs []uuid.UUID     `json:"selected_student_ids" validate:"omitempty,dive,required"`
}

func (r *CreateInvoiceRequest) Normalize() {
	r.UnitCode = strings.TrimSpace(r.UnitCode)
	r.Title = strings.TrimSpace(r.Title)
	if r.Note != nil {
		n := strings.TrimSpace(*r.Note)
		if n == "" {
			r.Note = nil
		} else {
			r.Note = &n
		}
	}
	r.SelectedStudentIDs = lo.Uniq(r.SelectedStudentIDs)
}

func (r *CreateInvoiceRequest) ToInput(schoolID uuid.UUID, actor *uuid.UUID) service.CreateInvoiceInput {
	return service.CreateInvoiceInput{
		SchoolID:           schoolID,
		UnitCode:           r.UnitCode,
		Title:              r.Title,
		Nominal:            r.Nominal,
		DueDate:            r.DueDate,
		Note:               r.Note,
		SelectedStudentIDs: r.SelectedStudentIDs,
		CreatedBy:          actor,
	}
}

// Dipakai untuk add/remove anggota tagihan.
type StudentIDsRequest struct {
	StudentIDs []uuid.UUID `json:"student_ids" validate:"required,min=1,max=1000,dive,required"`
}

func (r *StudentIDsRequest) Normalize() {
	r.StudentIDs = lo.Uniq(r.StudentIDs)
}

/* =========================================================
   INVOICE: response
========================================================= */

type InvoiceResponse struct {
	InvoiceID                          uuid.UUID         `json:"invoice_id"`
	InvoiceSchoolID                    uuid.UUID         `json:"invoice_school_id"`
	InvoiceUnitCode                    string            `json:"invoice_unit_code"`
	InvoiceTitle                       string            `json:"invoice_title"`
	InvoiceNominal                     decimal.Decimal   `json:"invoice_nominal"`
	InvoiceDueDate                     *time.Time        `json:"invoice_due_date,omitempty"`
	InvoiceNote                        *string           `json:"invoice_note,omitempty"`
	InvoiceMode                        model.InvoiceMode `json:"invoice_mode"`
	InvoiceSelectedStudentIDs          []uuid.UUID       `json:"invoice_selected_student_ids"`
	InvoiceNumberOfStudentsInvoiced    int               `json:"invoice_number_of_students_invoiced"`
	InvoiceNumberOfWaitingVerification int               `json:"invoice_number_of_waiting_verification"`
	InvoiceNumberOfPaid                int               `json:"invoice_number_of_paid"`
	InvoiceIssuedAt                    *time.Time        `json:"invoice_issued_at,omitempty"`
	InvoiceCreatedAt                   time.Time         `json:"invoice_created_at"`
	InvoiceUpdatedAt                   time.Time         `json:"invoice_updated_at"`
}

func FromInvoiceModel(m *model.InvoiceModel) InvoiceResponse {
	ids := []uuid.UUID(m.InvoiceSelectedStudentIDs)
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return InvoiceResponse{
		InvoiceID:                          m.InvoiceID,
		InvoiceSchoolID:                    m.InvoiceSchoolID,
		InvoiceUnitCode:                    m.InvoiceUnitCode,
		InvoiceTitle:                       m.InvoiceTitle,
		InvoiceNominal:                     m.InvoiceNominal,
		InvoiceDueDate:                     m.InvoiceDueDate,
		InvoiceNote:                        m.InvoiceNote,
		InvoiceMode:                        m.InvoiceMode,
		InvoiceSelectedStudentIDs:          ids,
		InvoiceNumberOfStudentsInvoiced:    m.InvoiceNumberOfStudentsInvoiced,
		InvoiceNumberOfWaitingVerification: m.InvoiceNumberOfWaitingVerification,
		InvoiceNumberOfPaid:                m.InvoiceNumberOfPaid,
		InvoiceIssuedAt:                    m.InvoiceIssuedAt,
		InvoiceCreatedAt:                   m.InvoiceCreatedAt,
		InvoiceUpdatedAt:                   m.InvoiceUpdatedAt,
	}
}

func FromInvoiceModels(rows []model.InvoiceModel) []InvoiceResponse {
	return lo.Map(rows, func(m model.InvoiceModel, _ int) InvoiceResponse {
		return FromInvoiceModel(&m)
	})
}
