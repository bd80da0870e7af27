package model

import "strings"

// ReasonOther: alasan bebas, wajib isi catatan.
const ReasonOther = "Other"

// PredefinedReasons dipakai untuk penolakan & pembatalan verifikasi.
var PredefinedReasons = []string{
	"Gambar kurang jelas",
	"Nominal tidak sesuai",
	"Bukti pembayaran tidak valid",
	"Pembayaran belum diterima",
	"Salah tagihan",
}

// IsKnownReason reports whether code is a predefined reason or the Other sentinel.
func IsKnownReason(code string) bool {
	if code == ReasonOther {
		return true
	}
	for _, r := range PredefinedReasons {
		if strings.EqualFold(r, strings.TrimSpace(code)) {
			return true
		}
	}
	return false
}
