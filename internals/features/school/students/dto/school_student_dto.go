package dto

import (
	"strings"

	"pesantrenku_backend/internals/features/school/students/model"
)

type CreateSchoolStudentRequest struct {
	UnitCode      string  `json:"school_student_unit_code" validate:"required,max=40"`
	Name          string  `json:"school_student_name" validate:"required,max=120"`
	Room          *string `json:"school_student_room" validate:"omitempty,max=60"`
	Level         *string `json:"school_student_level" validate:"omitempty,max=30"`
	Status        string  `json:"school_student_status" validate:"omitempty,oneof=active inactive"`
	GuardianName  *string `json:"school_student_guardian_name" validate:"omitempty,max=120"`
	GuardianPhone *string `json:"school_student_guardian_phone" validate:"omitempty,max=30"`
	GuardianEmail *string `json:"school_student_guardian_email" validate:"omitempty,email,max=160"`
}

func (r *CreateSchoolStudentRequest) Normalize() {
	r.UnitCode = strings.TrimSpace(r.UnitCode)
	r.Name = strings.TrimSpace(r.Name)
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	r.Room = trimPtr(r.Room)
	r.Level = trimPtr(r.Level)
	r.GuardianName = trimPtr(r.GuardianName)
	r.GuardianPhone = trimPtr(r.GuardianPhone)
	r.GuardianEmail = trimPtr(r.GuardianEmail)
}

func (r *CreateSchoolStudentRequest) ToModel() *model.SchoolStudentModel {
	status := model.SchoolStudentActive
	if r.Status != "" {
		status = model.SchoolStudentStatus(r.Status)
	}
	return &model.SchoolStudentModel{
		SchoolStudentUnitCode:      r.UnitCode,
		SchoolStudentName:          r.Name,
		SchoolStudentRoom:          r.Room,
		SchoolStudentLevel:         r.Level,
		SchoolStudentStatus:        status,
		SchoolStudentGuardianName:  r.GuardianName,
		SchoolStudentGuardianPhone: r.GuardianPhone,
		SchoolStudentGuardianEmail: r.GuardianEmail,
		SchoolStudentPaymentLabel:  model.PaymentLabelPaid,
	}
}

// PATCH: nil = tidak diubah
type UpdateSchoolStudentRequest struct {
	UnitCode      *string `json:"school_student_unit_code" validate:"omitempty,min=1,max=40"`
	Name          *string `json:"school_student_name" validate:"omitempty,min=1,max=120"`
	Room          *string `json:"school_student_room" validate:"omitempty,max=60"`
	Level         *string `json:"school_student_level" validate:"omitempty,max=30"`
	Status        *string `json:"school_student_status" validate:"omitempty,oneof=active inactive"`
	GuardianName  *string `json:"school_student_guardian_name" validate:"omitempty,max=120"`
	GuardianPhone *string `json:"school_student_guardian_phone" validate:"omitempty,max=30"`
	GuardianEmail *string `json:"school_student_guardian_email" validate:"omitempty,email,max=160"`
}

func (r *UpdateSchoolStudentRequest) Apply(m *model.SchoolStudentModel) {
	if r.UnitCode != nil {
		m.SchoolStudentUnitCode = strings.TrimSpace(*r.UnitCode)
	}
	if r.Name != nil {
		m.SchoolStudentName = strings.TrimSpace(*r.Name)
	}
	if r.Room != nil {
		m.SchoolStudentRoom = trimPtr(r.Room)
	}
	if r.Level != nil {
		m.SchoolStudentLevel = trimPtr(r.Level)
	}
	if r.Status != nil {
		m.SchoolStudentStatus = model.SchoolStudentStatus(strings.ToLower(strings.TrimSpace(*r.Status)))
	}
	if r.GuardianName != nil {
		m.SchoolStudentGuardianName = trimPtr(r.GuardianName)
	}
	if r.GuardianPhone != nil {
		m.SchoolStudentGuardianPhone = trimPtr(r.GuardianPhone)
	}
	if r.GuardianEmail != nil {
		m.SchoolStudentGuardianEmail = trimPtr(r.GuardianEmail)
	}
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}
