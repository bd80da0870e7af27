package helper

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"
	"unicode"

	"pesantrenku_backend/internals/configs"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// batas ukuran upload bukti
var maxUploadSize = int64(8 * 1024 * 1024)

// ProofStore menyimpan foto bukti pembayaran dan mengembalikan URL publiknya.
type ProofStore interface {
	UploadProof(ctx context.Context, schoolID uuid.UUID, paymentStatusID, studentName string, fh *multipart.FileHeader) (string, error)
}

/* =======================================================================
   OSS Service
======================================================================= */

type OSSService struct {
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	Prefix     string
	PublicBase string
}

// NewOSSService returns (nil, nil) when OSS is not configured.
func NewOSSService(cfg configs.OSSConfig, log *logger.Logger) (*OSSService, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" || cfg.Bucket == "" {
		log.Warnw("OSS belum dikonfigurasi, upload bukti dinonaktifkan")
		return nil, nil
	}
	endpoint := normalizeEndpoint(cfg.Endpoint)
	client, err := oss.New(endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("OSS init gagal").Mark(ierr.ErrSystem)
	}
	bkt, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("OSS bucket tidak valid").Mark(ierr.ErrSystem)
	}
	return &OSSService{
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: cfg.Bucket,
		Prefix:     strings.Trim(cfg.Prefix, "/"),
		PublicBase: strings.TrimRight(cfg.PublicBase, "/"),
	}, nil
}

func normalizeEndpoint(ep string) string {
	ep = strings.TrimSpace(ep)
	if ep == "" {
		return ""
	}
	if !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
		ep = "https://" + ep
	}
	return strings.TrimRight(ep, "/")
}

/* =======================================================================
   Upload bukti pembayaran
======================================================================= */

// UploadProof re-encodes the image to WebP and stores it under
// {prefix}/{school_id}/{yyyy}/{mm}/{student-slug}_{ts}_{rand}.webp.
func (s *OSSService) UploadProof(ctx context.Context, schoolID uuid.UUID, paymentStatusID, studentName string, fh *multipart.FileHeader) (string, error) {
	data, err := ReadProof(fh)
	if err != nil {
		return "", err
	}
	key := s.proofKey(schoolID, studentName, time.Now())
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType("image/webp"),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
		oss.Meta("payment-status-id", paymentStatusID),
	}
	if err := s.Bucket.PutObject(key, bytes.NewReader(data), opts...); err != nil {
		return "", ierr.WithError(err).WithHint("Gagal mengunggah bukti pembayaran").Mark(ierr.ErrSystem)
	}
	return s.PublicURL(key), nil
}

// ReadProof validates and converts an uploaded proof to WebP bytes.
func ReadProof(fh *multipart.FileHeader) ([]byte, error) {
	if fh == nil {
		return nil, ierr.NewError("nil file header").
			WithHint("File bukti pembayaran wajib diunggah").
			Mark(ierr.ErrValidation)
	}
	if fh.Size > maxUploadSize {
		return nil, ierr.NewError("file too large").
			WithHintf("Ukuran file maksimal %d MB", maxUploadSize/1024/1024).
			Mark(ierr.ErrValidation)
	}
	src, err := fh.Open()
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrValidation)
	}
	defer src.Close()

	all, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrValidation)
	}
	out, err := ConvertToWebP(all, fh.Filename, ProofWebPOptions)
	if err != nil {
		hint := "Gambar bukti tidak bisa dibaca"
		if errors.Is(err, ErrUnsupportedImage) {
			hint = "Format gambar tidak didukung (pakai jpg/png/webp)"
		}
		return nil, ierr.WithError(err).WithHint(hint).Mark(ierr.ErrValidation)
	}
	return out, nil
}

func (s *OSSService) proofKey(schoolID uuid.UUID, studentName string, now time.Time) string {
	return joinKey(s.Prefix, schoolID.String(), now.Format("2006"), now.Format("01"),
		fmt.Sprintf("%s_%s_%s.webp", Slugify(studentName), now.Format("20060102_150405"), randHex(3)))
}

func (s *OSSService) DeleteObjects(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.Bucket.DeleteObjects(keys, oss.WithContext(ctx), oss.DeleteObjectsQuiet(true))
	return err
}

/* =======================================================================
   Public URL & key utils
======================================================================= */

func (s *OSSService) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	if s.PublicBase != "" {
		return s.PublicBase + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, end, key)
}

func joinKey(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(strings.TrimSpace(p), "/"); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, "/")
}

// Slugify: "Muhammad 'Ālī" -> "muhammad-ali". Diakritik dilepas via NFD.
func Slugify(s string) string {
	s = norm.NFD.String(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "file"
	}
	return out
}

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

/* =======================================================================
   Multipart helper
======================================================================= */

var defaultImageFields = []string{"proof", "image", "file", "photo"}

// GetImageFile mencari file dari beberapa kemungkinan field form.
func GetImageFile(c *fiber.Ctx, fieldNames ...string) (*multipart.FileHeader, error) {
	ct := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
	if !strings.HasPrefix(ct, "multipart/form-data") {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Gunakan multipart/form-data")
	}
	names := fieldNames
	if len(names) == 0 {
		names = defaultImageFields
	}
	for _, fn := range names {
		if fh, err := c.FormFile(fn); err == nil && fh != nil {
			return fh, nil
		}
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, "File bukti pembayaran wajib diunggah")
}
