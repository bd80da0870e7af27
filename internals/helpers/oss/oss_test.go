package helper

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pesantrenku_backend/internals/configs"
	ierr "pesantrenku_backend/internals/errors"
	billingmodel "pesantrenku_backend/internals/features/finance/billings/model"
	studentmodel "pesantrenku_backend/internals/features/school/students/model"
	"pesantrenku_backend/internals/logger"
	"pesantrenku_backend/internals/testutil"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Muhammad 'Ālī":       "muhammad-ali",
		"  Siti   Nur  Aisyah ": "siti-nur-aisyah",
		"Ahmad_2024!":          "ahmad-2024",
		"":                     "file",
		"عبد الله":             "file",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "proofs/a/b.webp", joinKey("/proofs/", " ", "a", "/b.webp"))
	assert.Equal(t, "a", joinKey("", "a", ""))
}

func TestProofKeyAndPublicURL(t *testing.T) {
	school := uuid.MustParse("7b1e6c1a-0000-4000-8000-000000000001")
	now := time.Date(2026, 7, 3, 9, 15, 0, 0, time.UTC)

	s := &OSSService{Endpoint: "https://oss-ap-southeast-5.aliyuncs.com", BucketName: "pesantren", Prefix: "proofs"}
	key := s.proofKey(school, "Ahmad Fauzi", now)
	assert.True(t, strings.HasPrefix(key, "proofs/"+school.String()+"/2026/07/ahmad-fauzi_20260703_091500_"), key)
	assert.True(t, strings.HasSuffix(key, ".webp"))

	assert.Equal(t, "https://pesantren.oss-ap-southeast-5.aliyuncs.com/"+key, s.PublicURL(key))
	s.PublicBase = "https://cdn.pesantrenku.id"
	assert.Equal(t, "https://cdn.pesantrenku.id/"+key, s.PublicURL(key))
	assert.Empty(t, s.PublicURL(""))
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "https://oss.example.com", normalizeEndpoint(" oss.example.com/ "))
	assert.Equal(t, "http://localhost:9000", normalizeEndpoint("http://localhost:9000"))
	assert.Empty(t, normalizeEndpoint(""))
}

func TestNewOSSServiceUnconfigured(t *testing.T) {
	svc, err := NewOSSService(configs.OSSConfig{}, logger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, svc)
}

/* ===== ReadProof ===== */

func fileHeader(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("proof", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["proof"][0]
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestReadProofConvertsToWebP(t *testing.T) {
	out, err := ReadProof(fileHeader(t, "struk.png", pngBytes(t, 2000, 1000)))
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1600, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestReadProofRejects(t *testing.T) {
	_, err := ReadProof(nil)
	assert.True(t, ierr.IsValidation(err))

	_, err = ReadProof(fileHeader(t, "bukti.pdf", []byte("%PDF-1.4 bukan gambar")))
	assert.True(t, ierr.IsValidation(err))

	old := maxUploadSize
	maxUploadSize = 16
	defer func() { maxUploadSize = old }()
	_, err = ReadProof(fileHeader(t, "struk.png", pngBytes(t, 10, 10)))
	assert.True(t, ierr.IsValidation(err))
}

/* ===== Reaper ===== */

func TestReapRows(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	school := uuid.New()

	old := &billingmodel.InvoiceModel{InvoiceSchoolID: school, InvoiceUnitCode: "A", InvoiceTitle: "SPP Lama", InvoiceNominal: decimal.NewFromInt(1000)}
	recent := &billingmodel.InvoiceModel{InvoiceSchoolID: school, InvoiceUnitCode: "A", InvoiceTitle: "SPP Baru", InvoiceNominal: decimal.NewFromInt(1000)}
	alive := &billingmodel.InvoiceModel{InvoiceSchoolID: school, InvoiceUnitCode: "A", InvoiceTitle: "SPP Aktif", InvoiceNominal: decimal.NewFromInt(1000)}
	gone := &studentmodel.SchoolStudentModel{SchoolStudentSchoolID: school, SchoolStudentUnitCode: "A", SchoolStudentName: "Keluar"}
	for _, m := range []any{old, recent, alive, gone} {
		require.NoError(t, db.Create(m).Error)
	}

	setDeleted := func(table, col string, id uuid.UUID, idCol string, at time.Time) {
		require.NoError(t, db.Exec("UPDATE "+table+" SET "+col+" = ? WHERE "+idCol+" = ?", at, id).Error)
	}
	setDeleted("invoices", "invoice_deleted_at", old.InvoiceID, "invoice_id", now.AddDate(0, -3, 0))
	setDeleted("invoices", "invoice_deleted_at", recent.InvoiceID, "invoice_id", now.AddDate(0, 0, -2))
	setDeleted("school_students", "school_student_deleted_at", gone.SchoolStudentID, "school_student_id", now.AddDate(0, -2, 0))

	count := func(table string) int64 {
		var n int64
		require.NoError(t, db.Table(table).Count(&n).Error)
		return n
	}

	cfg := configs.ReaperConfig{Retention: 30 * 24 * time.Hour, DryRun: true}
	r := NewReaper(db, nil, cfg, logger.NewNop())
	r.now = func() time.Time { return now }

	n, err := r.ReapRows(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.EqualValues(t, 3, count("invoices"))

	cfg.DryRun = false
	r = NewReaper(db, nil, cfg, logger.NewNop())
	r.now = func() time.Time { return now }
	n, err = r.ReapRows(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.EqualValues(t, 2, count("invoices"))
	assert.Zero(t, count("school_students"))

	// Run tanpa OSS sama dengan ReapRows
	require.NoError(t, r.Run(ctx))

	r.cfg.Retention = 0
	n, err = r.ReapRows(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
