package service

import (
	"testing"
	"time"

	"pesantrenku_backend/internals/configs"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/finance/billings/model"
	"pesantrenku_backend/internals/features/finance/billings/repository"
	notifmodel "pesantrenku_backend/internals/features/home/notifications/model"
	"pesantrenku_backend/internals/features/school/students/counters"
	studentmodel "pesantrenku_backend/internals/features/school/students/model"
	studentrepo "pesantrenku_backend/internals/features/school/students/repository"
	"pesantrenku_backend/internals/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
)

type BillingServiceSuite struct {
	testutil.BaseSuite

	svc      *BillingService
	invoices *repository.InvoiceRepository
	statuses *repository.PaymentStatusRepository
	students *studentrepo.StudentRepository
	notifier *testutil.RecordingNotifier
	school   uuid.UUID
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseSuite.SetupTest()
	s.invoices = repository.NewInvoiceRepository(s.Client)
	s.statuses = repository.NewPaymentStatusRepository(s.Client)
	s.students = studentrepo.NewStudentRepository(s.Client)
	s.notifier = &testutil.RecordingNotifier{}
	s.school = uuid.New()
	s.svc = s.newService(configs.DefaultBilling())
}

func (s *BillingServiceSuite) newService(cfg configs.BillingConfig) *BillingService {
	return NewBillingService(Deps{
		DB:       s.Client,
		Invoices: s.invoices,
		Statuses: s.statuses,
		Students: s.students,
		Counter:  counters.NewService(s.Client, studentrepo.NewUnitCounterRepository(s.Client), s.students, s.Log),
		Notifier: s.notifier,
		Config:   cfg,
		Logger:   s.Log,
	})
}

/* ========== helpers ========== */

func (s *BillingServiceSuite) seedStudent(unit, name string, status studentmodel.SchoolStudentStatus) uuid.UUID {
	st := &studentmodel.SchoolStudentModel{
		SchoolStudentSchoolID: s.school,
		SchoolStudentUnitCode: unit,
		SchoolStudentName:     name,
		SchoolStudentStatus:   status,
	}
	s.Require().NoError(s.students.Create(s.Ctx, st))
	return st.SchoolStudentID
}

func (s *BillingServiceSuite) student(id uuid.UUID) *studentmodel.SchoolStudentModel {
	st, err := s.students.Get(s.Ctx, s.school, id)
	s.Require().NoError(err)
	return st
}

func (s *BillingServiceSuite) invoice(id uuid.UUID) *model.InvoiceModel {
	inv, err := s.invoices.GetByID(s.Ctx, id)
	s.Require().NoError(err)
	return inv
}

func (s *BillingServiceSuite) status(id string) *model.PaymentStatusModel {
	ps, err := s.statuses.GetWithHistory(s.Ctx, id)
	s.Require().NoError(err)
	return ps
}

func rupiah(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (s *BillingServiceSuite) createInvoice(unit string, nominal int64, selected ...uuid.UUID) *model.InvoiceModel {
	inv, _, err := s.svc.CreateInvoice(s.Ctx, CreateInvoiceInput{
		SchoolID:           s.school,
		UnitCode:           unit,
		Title:              "SPP Juli",
		Nominal:            rupiah(nominal),
		SelectedStudentIDs: selected,
	})
	s.Require().NoError(err)
	return inv
}

func (s *BillingServiceSuite) submitFull(id string) {
	_, err := s.svc.SubmitPayment(s.Ctx, s.school, id, SubmitInput{
		ProofRef: "https://cdn.example/proof.webp",
		Method:   model.PaymentMethodBankTransfer,
	})
	s.Require().NoError(err)
}

func (s *BillingServiceSuite) approve(id string) {
	_, err := s.svc.VerifyPayment(s.Ctx, s.school, id, VerifyInput{Approve: true})
	s.Require().NoError(err)
}

/* ========== issuance ========== */

func (s *BillingServiceSuite) TestBroadcastIssuanceTargetsActiveStudentsOfUnit() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	b := s.seedStudent("ASRAMA-A", "Bilal", "")
	c := s.seedStudent("ASRAMA-A", "Chairul", "")
	gone := s.seedStudent("ASRAMA-A", "Dzaki", studentmodel.SchoolStudentInactive)
	other := s.seedStudent("ASRAMA-B", "Fikri", "")

	inv, res, err := s.svc.CreateInvoice(s.Ctx, CreateInvoiceInput{
		SchoolID: s.school,
		UnitCode: "ASRAMA-A",
		Title:    "SPP Juli",
		Nominal:  rupiah(100000),
	})
	s.Require().NoError(err)
	s.Equal(model.InvoiceModeBroadcast, inv.InvoiceMode)
	s.Equal(3, res.Targeted)
	s.Equal(3, res.Created)
	s.True(res.Completed)

	s.NotNil(inv.InvoiceIssuedAt)
	s.Equal(3, inv.InvoiceNumberOfStudentsInvoiced)
	s.ElementsMatch([]uuid.UUID{a, b, c}, []uuid.UUID(inv.InvoiceSelectedStudentIDs))

	for _, id := range []uuid.UUID{a, b, c} {
		st := s.student(id)
		s.Equal(1, st.SchoolStudentOutstandingCount)
		s.Equal(studentmodel.PaymentLabelUnpaid, st.SchoolStudentPaymentLabel)

		ps := s.status(model.PaymentStatusKey(inv.InvoiceID, id))
		s.Equal(model.PaymentStatusUnpaid, ps.PaymentStatusStatus)
		s.True(ps.PaymentStatusPaid.IsZero())
		s.True(ps.PaymentStatusTotal.Equal(rupiah(100000)))
		s.Empty(ps.History)
	}
	for _, id := range []uuid.UUID{gone, other} {
		st := s.student(id)
		s.Equal(0, st.SchoolStudentOutstandingCount)
		s.Equal(studentmodel.PaymentLabelPaid, st.SchoolStudentPaymentLabel)
	}
}

func (s *BillingServiceSuite) TestSelectiveIssuanceDropsMissingAndWrongUnit() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	b := s.seedStudent("ASRAMA-B", "Bilal", "")
	missing := uuid.New()

	inv, res, err := s.svc.CreateInvoice(s.Ctx, CreateInvoiceInput{
		SchoolID:           s.school,
		UnitCode:           "ASRAMA-A",
		Title:              "Uang kitab",
		Nominal:            rupiah(50000),
		SelectedStudentIDs: []uuid.UUID{a, b, missing, a},
	})
	s.Require().NoError(err)
	s.Equal(model.InvoiceModeSelective, inv.InvoiceMode)
	s.Equal(1, res.Targeted)
	s.Equal(1, res.Created)
	s.Equal(1, res.SkippedNotFound)
	s.Equal(1, res.SkippedWrongUnit)

	s.Equal(1, inv.InvoiceNumberOfStudentsInvoiced)
	s.Equal([]uuid.UUID{a}, []uuid.UUID(inv.InvoiceSelectedStudentIDs))
	s.Equal(0, s.student(b).SchoolStudentOutstandingCount)
}

func (s *BillingServiceSuite) TestEmptyTargetLeavesInvoiceUntouched() {
	b := s.seedStudent("ASRAMA-B", "Bilal", "")

	inv, res, err := s.svc.CreateInvoice(s.Ctx, CreateInvoiceInput{
		SchoolID:           s.school,
		UnitCode:           "ASRAMA-A",
		Title:              "Uang kitab",
		Nominal:            rupiah(50000),
		SelectedStudentIDs: []uuid.UUID{b},
	})
	s.Require().NoError(err)
	s.Equal(0, res.Targeted)
	s.False(res.Completed)
	s.Nil(inv.InvoiceIssuedAt)
	s.Equal(0, inv.InvoiceNumberOfStudentsInvoiced)

	rows, total, err := s.statuses.ListByInvoice(s.Ctx, inv.InvoiceID, repository.StatusListFilter{Limit: 10})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(rows)
	s.Equal(0, s.student(b).SchoolStudentOutstandingCount)
}

func (s *BillingServiceSuite) TestIssuanceIsIdempotent() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)

	res, err := s.svc.IssueInvoice(s.Ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.True(res.Completed)
	s.Zero(res.Created)

	// simulasi proses yang terputus sebelum issued_at tercatat
	s.Require().NoError(s.DB.Model(&model.InvoiceModel{}).
		Where("invoice_id = ?", inv.InvoiceID).
		UpdateColumn("invoice_issued_at", nil).Error)

	res, err = s.svc.IssueInvoice(s.Ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.True(res.Completed)
	s.Zero(res.Created)
	s.Equal(1, res.AlreadyIssued)
	s.Equal(1, s.student(a).SchoolStudentOutstandingCount)
	s.Equal(1, s.invoice(inv.InvoiceID).InvoiceNumberOfStudentsInvoiced)
}

func (s *BillingServiceSuite) TestIssuanceRetryKeepsEarlierMembers() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	b := s.seedStudent("ASRAMA-A", "Bilal", "")
	inv := s.createInvoice("ASRAMA-A", 100000)

	// putaran pertama terputus sebelum issued_at dan anggota tercatat
	s.Require().NoError(s.DB.Model(&model.InvoiceModel{}).
		Where("invoice_id = ?", inv.InvoiceID).
		UpdateColumns(map[string]any{
			"invoice_issued_at":                   nil,
			"invoice_selected_student_ids":        datatypes.NewJSONSlice([]uuid.UUID{}),
			"invoice_number_of_students_invoiced": 0,
		}).Error)
	// Ahmad keluar dari asrama sebelum retry
	s.Require().NoError(s.DB.Model(&studentmodel.SchoolStudentModel{}).
		Where("school_student_id = ?", a).
		UpdateColumn("school_student_status", studentmodel.SchoolStudentInactive).Error)

	res, err := s.svc.IssueInvoice(s.Ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.True(res.Completed)
	s.Equal(1, res.Targeted)
	s.Zero(res.Created)

	got := s.invoice(inv.InvoiceID)
	s.NotNil(got.InvoiceIssuedAt)
	s.Equal(2, got.InvoiceNumberOfStudentsInvoiced)
	s.True(got.HasMember(a))
	s.True(got.HasMember(b))
	s.Equal(1, s.student(a).SchoolStudentOutstandingCount)

	// status Ahmad tetap bisa dikeluarkan lewat membership
	removed, err := s.svc.RemoveStudentsFromInvoice(s.Ctx, s.school, inv.InvoiceID, []uuid.UUID{a})
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{a}, removed.Removed)
	s.Equal(0, s.student(a).SchoolStudentOutstandingCount)
	s.Equal(1, s.invoice(inv.InvoiceID).InvoiceNumberOfStudentsInvoiced)
}

func (s *BillingServiceSuite) TestIssuanceInSmallChunks() {
	s.svc = s.newService(configs.BillingConfig{IssuanceBatchSize: 2})
	for _, n := range []string{"A1", "A2", "A3", "A4", "A5"} {
		s.seedStudent("ASRAMA-A", n, "")
	}
	_, res, err := s.svc.CreateInvoice(s.Ctx, CreateInvoiceInput{
		SchoolID: s.school,
		UnitCode: "ASRAMA-A",
		Title:    "SPP",
		Nominal:  rupiah(10000),
	})
	s.Require().NoError(err)
	s.Equal(5, res.Created)
}

func (s *BillingServiceSuite) TestCreateInvoiceValidation() {
	cases := []CreateInvoiceInput{
		{SchoolID: s.school, UnitCode: "A", Title: "SPP", Nominal: decimal.Zero},
		{SchoolID: s.school, UnitCode: "A", Title: "SPP", Nominal: rupiah(-5)},
		{SchoolID: s.school, UnitCode: " ", Title: "SPP", Nominal: rupiah(5)},
		{SchoolID: s.school, UnitCode: "A", Title: "", Nominal: rupiah(5)},
		{UnitCode: "A", Title: "SPP", Nominal: rupiah(5)},
	}
	for _, in := range cases {
		_, _, err := s.svc.CreateInvoice(s.Ctx, in)
		s.True(ierr.IsValidation(err), "input %+v", in)
	}

	cfg := configs.DefaultBilling()
	cfg.MinimumNominal = rupiah(10000)
	s.svc = s.newService(cfg)
	_, _, err := s.svc.CreateInvoice(s.Ctx, CreateInvoiceInput{SchoolID: s.school, UnitCode: "A", Title: "SPP", Nominal: rupiah(9999)})
	s.True(ierr.IsValidation(err))
}

func (s *BillingServiceSuite) TestRetryPendingIssuance() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	now := time.Now()

	stale := &model.InvoiceModel{
		InvoiceSchoolID:  s.school,
		InvoiceUnitCode:  "ASRAMA-A",
		InvoiceTitle:     "SPP",
		InvoiceNominal:   rupiah(10000),
		InvoiceCreatedAt: now.Add(-10 * time.Minute),
	}
	fresh := &model.InvoiceModel{
		InvoiceSchoolID:  s.school,
		InvoiceUnitCode:  "ASRAMA-A",
		InvoiceTitle:     "Uang makan",
		InvoiceNominal:   rupiah(20000),
		InvoiceCreatedAt: now.Add(-10 * time.Second),
	}
	s.Require().NoError(s.invoices.Create(s.Ctx, stale))
	s.Require().NoError(s.invoices.Create(s.Ctx, fresh))

	s.svc.now = func() time.Time { return now }
	s.Require().NoError(s.svc.RetryPendingIssuance(s.Ctx))

	s.NotNil(s.invoice(stale.InvoiceID).InvoiceIssuedAt)
	s.Nil(s.invoice(fresh.InvoiceID).InvoiceIssuedAt)
	s.Equal(1, s.student(a).SchoolStudentOutstandingCount)
}

/* ========== transitions ========== */

func (s *BillingServiceSuite) TestSubmitThenApprove() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	id := model.PaymentStatusKey(inv.InvoiceID, a)

	s.submitFull(id)

	ps := s.status(id)
	s.Equal(model.PaymentStatusAwaitingVerification, ps.PaymentStatusStatus)
	s.True(ps.PaymentStatusPaid.IsZero())
	s.Require().Len(ps.History, 1)
	s.Equal(model.PaymentEventFullPayment, ps.History[0].PaymentStatusEventType)
	s.True(ps.History[0].PaymentStatusEventAmount.Equal(rupiah(100000)))
	s.Equal(studentmodel.PaymentLabelAwaitingVerification, s.student(a).SchoolStudentPaymentLabel)
	s.Equal(1, s.invoice(inv.InvoiceID).InvoiceNumberOfWaitingVerification)
	s.Empty(s.notifier.Notices())

	s.approve(id)

	ps = s.status(id)
	s.Equal(model.PaymentStatusPaid, ps.PaymentStatusStatus)
	s.True(ps.PaymentStatusPaid.Equal(rupiah(100000)))
	s.Require().Len(ps.History, 2)
	s.Equal(model.PaymentEventVerification, ps.History[1].PaymentStatusEventType)

	st := s.student(a)
	s.Equal(0, st.SchoolStudentOutstandingCount)
	s.Equal(studentmodel.PaymentLabelPaid, st.SchoolStudentPaymentLabel)

	got := s.invoice(inv.InvoiceID)
	s.Equal(1, got.InvoiceNumberOfPaid)
	s.Equal(0, got.InvoiceNumberOfWaitingVerification)

	notices := s.notifier.Notices()
	s.Require().Len(notices, 1)
	s.Equal(notifmodel.NoticePaymentApproved, notices[0].Kind)
	s.Equal(id, notices[0].PaymentStatusID)
	s.True(notices[0].Amount.Equal(rupiah(100000)))
}

func (s *BillingServiceSuite) TestRejectReturnsToUnpaid() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	id := model.PaymentStatusKey(inv.InvoiceID, a)
	s.submitFull(id)

	_, err := s.svc.VerifyPayment(s.Ctx, s.school, id, VerifyInput{Approve: false, ReasonCode: model.ReasonOther})
	s.True(ierr.IsValidation(err))
	_, err = s.svc.VerifyPayment(s.Ctx, s.school, id, VerifyInput{Approve: false, ReasonCode: "karena saja"})
	s.True(ierr.IsValidation(err))
	_, err = s.svc.VerifyPayment(s.Ctx, s.school, id, VerifyInput{Approve: false})
	s.True(ierr.IsValidation(err))

	ps, err := s.svc.VerifyPayment(s.Ctx, s.school, id, VerifyInput{
		Approve:    false,
		ReasonCode: model.PredefinedReasons[0],
	})
	s.Require().NoError(err)
	s.Equal(model.PaymentStatusUnpaid, ps.PaymentStatusStatus)
	s.True(ps.PaymentStatusPaid.IsZero())

	last := ps.History[len(ps.History)-1]
	s.Equal(model.PaymentEventRejection, last.PaymentStatusEventType)
	s.Require().NotNil(last.PaymentStatusEventReasonCode)
	s.Equal(model.PredefinedReasons[0], *last.PaymentStatusEventReasonCode)

	st := s.student(a)
	s.Equal(1, st.SchoolStudentOutstandingCount)
	s.Equal(studentmodel.PaymentLabelUnpaid, st.SchoolStudentPaymentLabel)
	s.Equal(0, s.invoice(inv.InvoiceID).InvoiceNumberOfWaitingVerification)

	notices := s.notifier.Notices()
	s.Require().Len(notices, 1)
	s.Equal(notifmodel.NoticePaymentRejected, notices[0].Kind)
	s.Equal(model.PredefinedReasons[0], notices[0].Reason)
}

func (s *BillingServiceSuite) TestRejectWithOtherReason() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	id := model.PaymentStatusKey(inv.InvoiceID, a)
	s.submitFull(id)

	_, err := s.svc.VerifyPayment(s.Ctx, s.school, id, VerifyInput{
		ReasonCode: model.ReasonOther,
		ReasonNote: "Transfer ke rekening lama",
	})
	s.Require().NoError(err)
	notices := s.notifier.Notices()
	s.Require().Len(notices, 1)
	s.Equal("Transfer ke rekening lama", notices[0].Reason)
}

func (s *BillingServiceSuite) TestRevokePaid() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	id := model.PaymentStatusKey(inv.InvoiceID, a)
	s.submitFull(id)
	s.approve(id)

	_, err := s.svc.RevokePaidStatus(s.Ctx, s.school, id, RevokeInput{})
	s.True(ierr.IsValidation(err))

	ps, err := s.svc.RevokePaidStatus(s.Ctx, s.school, id, RevokeInput{ReasonCode: "Pembayaran belum diterima"})
	s.Require().NoError(err)
	s.Equal(model.PaymentStatusUnpaid, ps.PaymentStatusStatus)
	s.True(ps.PaymentStatusPaid.IsZero())
	last := ps.History[len(ps.History)-1]
	s.Equal(model.PaymentEventRevocation, last.PaymentStatusEventType)
	s.True(last.PaymentStatusEventAmount.Equal(rupiah(100000)))

	st := s.student(a)
	s.Equal(1, st.SchoolStudentOutstandingCount)
	s.Equal(studentmodel.PaymentLabelUnpaid, st.SchoolStudentPaymentLabel)
	s.Equal(0, s.invoice(inv.InvoiceID).InvoiceNumberOfPaid)

	notices := s.notifier.Notices()
	s.Require().Len(notices, 2)
	s.Equal(notifmodel.NoticePaymentRevoked, notices[1].Kind)
}

func (s *BillingServiceSuite) TestIllegalTransitions() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	id := model.PaymentStatusKey(inv.InvoiceID, a)

	_, err := s.svc.VerifyPayment(s.Ctx, s.school, id, VerifyInput{Approve: true})
	s.True(ierr.IsInvalidOperation(err))
	_, err = s.svc.RevokePaidStatus(s.Ctx, s.school, id, RevokeInput{ReasonCode: "Salah tagihan"})
	s.True(ierr.IsInvalidOperation(err))

	s.submitFull(id)
	s.approve(id)
	_, err = s.svc.SubmitPayment(s.Ctx, s.school, id, SubmitInput{ProofRef: "x", Method: model.PaymentMethodCash})
	s.True(ierr.IsInvalidOperation(err))

	// state tetap setelah penolakan
	s.Equal(model.PaymentStatusPaid, s.status(id).PaymentStatusStatus)
	s.Equal(1, s.invoice(inv.InvoiceID).InvoiceNumberOfPaid)
}

func (s *BillingServiceSuite) TestResubmitWhileAwaitingKeepsCounter() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	id := model.PaymentStatusKey(inv.InvoiceID, a)

	s.submitFull(id)
	s.submitFull(id)

	s.Len(s.status(id).History, 2)
	s.Equal(1, s.invoice(inv.InvoiceID).InvoiceNumberOfWaitingVerification)
}

func (s *BillingServiceSuite) TestSubmitValidation() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	id := model.PaymentStatusKey(inv.InvoiceID, a)

	amt := rupiah(40000)
	_, err := s.svc.SubmitPayment(s.Ctx, s.school, id, SubmitInput{Partial: true, Amount: &amt, ProofRef: "x", Method: model.PaymentMethodCash})
	s.True(ierr.IsValidation(err), "partial disabled")

	_, err = s.svc.SubmitPayment(s.Ctx, s.school, id, SubmitInput{Amount: &amt, ProofRef: "x", Method: model.PaymentMethodCash})
	s.True(ierr.IsValidation(err), "full amount mismatch")

	_, err = s.svc.SubmitPayment(s.Ctx, s.school, id, SubmitInput{Method: model.PaymentMethodCash})
	s.True(ierr.IsValidation(err), "missing proof")

	s.Equal(model.PaymentStatusUnpaid, s.status(id).PaymentStatusStatus)
}

func (s *BillingServiceSuite) TestPartialPayments() {
	cfg := configs.DefaultBilling()
	cfg.AllowPartialPayment = true
	s.svc = s.newService(cfg)

	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	id := model.PaymentStatusKey(inv.InvoiceID, a)

	tooMuch := rupiah(150000)
	_, err := s.svc.SubmitPayment(s.Ctx, s.school, id, SubmitInput{Partial: true, Amount: &tooMuch, ProofRef: "x", Method: model.PaymentMethodCash})
	s.True(ierr.IsValidation(err))

	first := rupiah(40000)
	_, err = s.svc.SubmitPayment(s.Ctx, s.school, id, SubmitInput{Partial: true, Amount: &first, ProofRef: "x", Method: model.PaymentMethodCash})
	s.Require().NoError(err)
	s.approve(id)

	ps := s.status(id)
	s.Equal(model.PaymentStatusUnpaid, ps.PaymentStatusStatus)
	s.True(ps.PaymentStatusPaid.Equal(first))
	s.True(ps.Remaining().Equal(rupiah(60000)))
	st := s.student(a)
	s.Equal(1, st.SchoolStudentOutstandingCount)
	s.Equal(studentmodel.PaymentLabelUnpaid, st.SchoolStudentPaymentLabel)
	got := s.invoice(inv.InvoiceID)
	s.Equal(0, got.InvoiceNumberOfPaid)
	s.Equal(0, got.InvoiceNumberOfWaitingVerification)

	// sisa dibayar penuh
	s.submitFull(id)
	s.approve(id)

	ps = s.status(id)
	s.Equal(model.PaymentStatusPaid, ps.PaymentStatusStatus)
	s.True(ps.PaymentStatusPaid.Equal(rupiah(100000)))
	s.Equal(studentmodel.PaymentLabelPaid, s.student(a).SchoolStudentPaymentLabel)
	s.Equal(1, s.invoice(inv.InvoiceID).InvoiceNumberOfPaid)
}

func (s *BillingServiceSuite) TestLabelAcrossInvoices() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	first := s.createInvoice("ASRAMA-A", 100000)
	second := s.createInvoice("ASRAMA-A", 25000)
	s.Equal(2, s.student(a).SchoolStudentOutstandingCount)

	id := model.PaymentStatusKey(first.InvoiceID, a)
	s.submitFull(id)
	s.Equal(studentmodel.PaymentLabelAwaitingVerification, s.student(a).SchoolStudentPaymentLabel)

	s.approve(id)
	st := s.student(a)
	s.Equal(1, st.SchoolStudentOutstandingCount)
	s.Equal(studentmodel.PaymentLabelUnpaid, st.SchoolStudentPaymentLabel)

	id2 := model.PaymentStatusKey(second.InvoiceID, a)
	s.submitFull(id2)
	s.approve(id2)
	st = s.student(a)
	s.Equal(0, st.SchoolStudentOutstandingCount)
	s.Equal(studentmodel.PaymentLabelPaid, st.SchoolStudentPaymentLabel)
}

func (s *BillingServiceSuite) TestOtherSchoolSeesNotFound() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	id := model.PaymentStatusKey(inv.InvoiceID, a)
	stranger := uuid.New()

	_, err := s.svc.SubmitPayment(s.Ctx, stranger, id, SubmitInput{ProofRef: "x", Method: model.PaymentMethodCash})
	s.True(ierr.IsNotFound(err))
	_, err = s.svc.GetPaymentStatus(s.Ctx, stranger, id)
	s.True(ierr.IsNotFound(err))
	_, err = s.svc.GetInvoice(s.Ctx, stranger, inv.InvoiceID)
	s.True(ierr.IsNotFound(err))
	s.True(ierr.IsNotFound(s.svc.DeleteInvoice(s.Ctx, stranger, inv.InvoiceID)))

	_, err = s.svc.GetPaymentStatus(s.Ctx, s.school, model.PaymentStatusKey(inv.InvoiceID, uuid.New()))
	s.True(ierr.IsNotFound(err))
}

/* ========== delete ========== */

func (s *BillingServiceSuite) TestDeleteInvoiceReversesDebits() {
	paid := s.seedStudent("ASRAMA-A", "Ahmad", "")
	waiting := s.seedStudent("ASRAMA-A", "Bilal", "")
	unpaid := s.seedStudent("ASRAMA-A", "Chairul", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	keep := s.createInvoice("ASRAMA-A", 5000)

	s.submitFull(model.PaymentStatusKey(inv.InvoiceID, paid))
	s.approve(model.PaymentStatusKey(inv.InvoiceID, paid))
	s.submitFull(model.PaymentStatusKey(inv.InvoiceID, waiting))

	s.Require().NoError(s.svc.DeleteInvoice(s.Ctx, s.school, inv.InvoiceID))

	for _, id := range []uuid.UUID{paid, waiting, unpaid} {
		st := s.student(id)
		s.Equal(1, st.SchoolStudentOutstandingCount, "only the kept invoice remains")
		s.Equal(studentmodel.PaymentLabelUnpaid, st.SchoolStudentPaymentLabel)
		_, err := s.statuses.Get(s.Ctx, model.PaymentStatusKey(inv.InvoiceID, id))
		s.True(ierr.IsNotFound(err))
	}
	_, err := s.invoices.GetByID(s.Ctx, inv.InvoiceID)
	s.True(ierr.IsNotFound(err))
	_, err = s.invoices.GetByID(s.Ctx, keep.InvoiceID)
	s.NoError(err)

	s.True(ierr.IsNotFound(s.svc.DeleteInvoice(s.Ctx, s.school, inv.InvoiceID)))
	s.Equal(1, s.student(unpaid).SchoolStudentOutstandingCount)
}

func (s *BillingServiceSuite) TestDeleteOnlyInvoiceRestoresPaidLabel() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)

	s.Require().NoError(s.svc.DeleteInvoice(s.Ctx, s.school, inv.InvoiceID))
	st := s.student(a)
	s.Equal(0, st.SchoolStudentOutstandingCount)
	s.Equal(studentmodel.PaymentLabelPaid, st.SchoolStudentPaymentLabel)
}

func (s *BillingServiceSuite) TestDeletedStudentStillSettles() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	b := s.seedStudent("ASRAMA-A", "Bilal", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	keep := s.createInvoice("ASRAMA-A", 5000)

	// bukti Ahmad masuk lalu santri dihapus
	s.submitFull(model.PaymentStatusKey(keep.InvoiceID, a))
	s.Require().NoError(s.students.Delete(s.Ctx, a))

	s.approve(model.PaymentStatusKey(keep.InvoiceID, a))
	s.Require().NoError(s.svc.DeleteInvoice(s.Ctx, s.school, inv.InvoiceID))

	_, err := s.invoices.GetByID(s.Ctx, inv.InvoiceID)
	s.True(ierr.IsNotFound(err))
	_, err = s.students.Get(s.Ctx, s.school, a)
	s.True(ierr.IsNotFound(err))

	var gone studentmodel.SchoolStudentModel
	s.Require().NoError(s.DB.Unscoped().Where("school_student_id = ?", a).First(&gone).Error)
	s.Equal(0, gone.SchoolStudentOutstandingCount)
	s.Equal(studentmodel.PaymentLabelPaid, gone.SchoolStudentPaymentLabel)

	st := s.student(b)
	s.Equal(1, st.SchoolStudentOutstandingCount)
	s.Equal(studentmodel.PaymentLabelUnpaid, st.SchoolStudentPaymentLabel)
	s.Equal(1, s.invoice(keep.InvoiceID).InvoiceNumberOfPaid)
}

/* ========== membership ========== */

func (s *BillingServiceSuite) TestAddStudentsToInvoice() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)

	late := s.seedStudent("ASRAMA-A", "Bilal", "")
	wrong := s.seedStudent("ASRAMA-B", "Chairul", "")
	missing := uuid.New()

	res, err := s.svc.AddStudentsToInvoice(s.Ctx, s.school, inv.InvoiceID, []uuid.UUID{late, a, wrong, missing, late})
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{late}, res.Added)
	s.Equal([]uuid.UUID{a}, res.AlreadyMember)
	s.Equal([]uuid.UUID{wrong}, res.WrongUnit)
	s.Equal([]uuid.UUID{missing}, res.NotFound)
	s.Empty(res.Failed)
	s.Equal(1, res.AddedCount)

	got := s.invoice(inv.InvoiceID)
	s.Equal(2, got.InvoiceNumberOfStudentsInvoiced)
	s.True(got.HasMember(late))

	st := s.student(late)
	s.Equal(1, st.SchoolStudentOutstandingCount)
	s.Equal(studentmodel.PaymentLabelUnpaid, st.SchoolStudentPaymentLabel)
	s.Equal(model.PaymentStatusUnpaid, s.status(model.PaymentStatusKey(inv.InvoiceID, late)).PaymentStatusStatus)
}

func (s *BillingServiceSuite) TestRemoveStudentsFromInvoice() {
	unpaid := s.seedStudent("ASRAMA-A", "Ahmad", "")
	waiting := s.seedStudent("ASRAMA-A", "Bilal", "")
	paid := s.seedStudent("ASRAMA-A", "Chairul", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	outsider := s.seedStudent("ASRAMA-A", "Dzaki", "")

	s.submitFull(model.PaymentStatusKey(inv.InvoiceID, waiting))
	s.submitFull(model.PaymentStatusKey(inv.InvoiceID, paid))
	s.approve(model.PaymentStatusKey(inv.InvoiceID, paid))

	res, err := s.svc.RemoveStudentsFromInvoice(s.Ctx, s.school, inv.InvoiceID, []uuid.UUID{unpaid, waiting, paid, outsider})
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{unpaid}, res.Removed)
	s.ElementsMatch([]uuid.UUID{waiting, paid}, res.Refused)
	s.Equal([]uuid.UUID{outsider}, res.NotMember)
	s.Equal(1, res.RemovedCount)

	got := s.invoice(inv.InvoiceID)
	s.Equal(2, got.InvoiceNumberOfStudentsInvoiced)
	s.False(got.HasMember(unpaid))
	s.True(got.HasMember(waiting))

	st := s.student(unpaid)
	s.Equal(0, st.SchoolStudentOutstandingCount)
	s.Equal(studentmodel.PaymentLabelPaid, st.SchoolStudentPaymentLabel)
	_, err = s.statuses.Get(s.Ctx, model.PaymentStatusKey(inv.InvoiceID, unpaid))
	s.True(ierr.IsNotFound(err))
}

func (s *BillingServiceSuite) TestMembershipNeedsIssuedInvoice() {
	b := s.seedStudent("ASRAMA-B", "Bilal", "")
	inv, _, err := s.svc.CreateInvoice(s.Ctx, CreateInvoiceInput{
		SchoolID:           s.school,
		UnitCode:           "ASRAMA-A",
		Title:              "SPP",
		Nominal:            rupiah(1000),
		SelectedStudentIDs: []uuid.UUID{b},
	})
	s.Require().NoError(err)

	_, err = s.svc.AddStudentsToInvoice(s.Ctx, s.school, inv.InvoiceID, []uuid.UUID{b})
	s.True(ierr.IsInvalidOperation(err))
	_, err = s.svc.RemoveStudentsFromInvoice(s.Ctx, s.school, inv.InvoiceID, []uuid.UUID{b})
	s.True(ierr.IsInvalidOperation(err))
}

/* ========== gateway & queries ========== */

func (s *BillingServiceSuite) TestSettleGatewayPayment() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	id := model.PaymentStatusKey(inv.InvoiceID, a)

	meta := datatypes.JSON(`{"order_id":"SPP-01"}`)
	ps, applied, err := s.svc.SettleGatewayPayment(s.Ctx, id, "SPP-01", meta)
	s.Require().NoError(err)
	s.True(applied)
	s.Equal(model.PaymentStatusPaid, ps.PaymentStatusStatus)

	ps = s.status(id)
	s.Require().Len(ps.History, 2)
	sub, ver := ps.History[0], ps.History[1]
	s.Equal(model.PaymentEventFullPayment, sub.PaymentStatusEventType)
	s.Require().NotNil(sub.PaymentStatusEventMethod)
	s.Equal(model.PaymentMethodGateway, *sub.PaymentStatusEventMethod)
	s.Require().NotNil(sub.PaymentStatusEventProofRef)
	s.Equal("SPP-01", *sub.PaymentStatusEventProofRef)
	s.Equal(model.ActorSystem, sub.PaymentStatusEventActorRole)
	s.Equal(model.PaymentEventVerification, ver.PaymentStatusEventType)

	got := s.invoice(inv.InvoiceID)
	s.Equal(1, got.InvoiceNumberOfPaid)
	s.Equal(0, got.InvoiceNumberOfWaitingVerification)
	s.Equal(studentmodel.PaymentLabelPaid, s.student(a).SchoolStudentPaymentLabel)

	// notifikasi berulang dari gateway tidak menggandakan pembayaran
	_, applied, err = s.svc.SettleGatewayPayment(s.Ctx, id, "SPP-01", meta)
	s.Require().NoError(err)
	s.False(applied)
	s.Len(s.status(id).History, 2)
	s.Len(s.notifier.Notices(), 1)
}

func (s *BillingServiceSuite) TestSettleGatewayPaymentAfterManualSubmit() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	inv := s.createInvoice("ASRAMA-A", 100000)
	id := model.PaymentStatusKey(inv.InvoiceID, a)
	s.submitFull(id)

	_, applied, err := s.svc.SettleGatewayPayment(s.Ctx, id, "SPP-02", nil)
	s.Require().NoError(err)
	s.True(applied)
	got := s.invoice(inv.InvoiceID)
	s.Equal(1, got.InvoiceNumberOfPaid)
	s.Equal(0, got.InvoiceNumberOfWaitingVerification)
}

func (s *BillingServiceSuite) TestPaymentHistoryAndInvoiceListing() {
	a := s.seedStudent("ASRAMA-A", "Ahmad", "")
	b := s.seedStudent("ASRAMA-A", "Bilal", "")
	first := s.createInvoice("ASRAMA-A", 100000)
	s.createInvoice("ASRAMA-A", 25000)
	s.submitFull(model.PaymentStatusKey(first.InvoiceID, a))

	rows, err := s.svc.GetPaymentHistory(s.Ctx, s.school, a)
	s.Require().NoError(err)
	s.Len(rows, 2)

	_, err = s.svc.GetPaymentHistory(s.Ctx, s.school, uuid.New())
	s.True(ierr.IsNotFound(err))

	awaiting := model.PaymentStatusAwaitingVerification
	list, total, err := s.svc.GetInvoicePaymentStatuses(s.Ctx, s.school, first.InvoiceID, repository.StatusListFilter{Status: &awaiting, Limit: 50})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Require().Len(list, 1)
	s.Equal(a, list[0].PaymentStatusStudentID)

	_, total, err = s.svc.GetInvoicePaymentStatuses(s.Ctx, s.school, first.InvoiceID, repository.StatusListFilter{Limit: 50})
	s.Require().NoError(err)
	s.EqualValues(2, total)

	rows, err = s.svc.GetPaymentHistory(s.Ctx, s.school, b)
	s.Require().NoError(err)
	s.Len(rows, 2)

	invs, n, err := s.svc.ListInvoices(s.Ctx, s.school, repository.InvoiceListFilter{})
	s.Require().NoError(err)
	s.EqualValues(2, n)
	s.Len(invs, 2)
}
