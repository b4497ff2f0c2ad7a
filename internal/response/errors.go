package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication / Authorization ────────────────────────────────
	ErrTokenRequired    ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid     ErrCode = "TOKEN_INVALID"
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"
	ErrLearnerOnly      ErrCode = "LEARNER_ACCESS_ONLY"
	ErrAdminOnly        ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Entitlement ───────────────────────────────────────────────────
	ErrMembershipRequired ErrCode = "MEMBERSHIP_REQUIRED"
	ErrFeatureNotEntitled ErrCode = "FEATURE_NOT_ENTITLED"
	ErrQuotaExhausted     ErrCode = "QUOTA_EXHAUSTED"

	// ─── Schedule ──────────────────────────────────────────────────────
	ErrNotYetOpen ErrCode = "NOT_YET_OPEN"
	ErrClosed     ErrCode = "CLOSED"

	// ─── Attempts ──────────────────────────────────────────────────────
	ErrAttemptCompleted ErrCode = "ATTEMPT_ALREADY_COMPLETED"

	// ─── Blocks ────────────────────────────────────────────────────────
	ErrBlocked       ErrCode = "BLOCKED"
	ErrInvalidCode   ErrCode = "INVALID_CODE"
	ErrNoActiveBlock ErrCode = "NO_ACTIVE_BLOCK"

	// ─── Ingestion ─────────────────────────────────────────────────────
	ErrQuestionSetInvalid ErrCode = "QUESTION_SET_INVALID"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication / Authorization ────────────────────────────────
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrPermissionDenied:
		return "Izin ditolak."
	case ErrLearnerOnly:
		return "Sumber daya ini terbatas untuk peserta."
	case ErrAdminOnly:
		return "Sumber daya ini terbatas untuk administrator."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."

	// ─── Entitlement ───────────────────────────────────────────────────
	case ErrMembershipRequired:
		return "Anda memerlukan membership aktif untuk mengakses fitur ini."
	case ErrFeatureNotEntitled:
		return "Paket membership Anda tidak mencakup fitur ini."
	case ErrQuotaExhausted:
		return "Kuota Anda untuk fitur ini telah habis."

	// ─── Schedule ──────────────────────────────────────────────────────
	case ErrNotYetOpen:
		return "Ujian ini belum dibuka."
	case ErrClosed:
		return "Ujian ini sudah ditutup."

	// ─── Attempts ──────────────────────────────────────────────────────
	case ErrAttemptCompleted:
		return "Pengerjaan ini sudah diselesaikan."

	// ─── Blocks ────────────────────────────────────────────────────────
	case ErrBlocked:
		return "Akses Anda diblokir karena pelanggaran. Masukkan kode buka blokir."
	case ErrInvalidCode:
		return "Kode buka blokir salah."
	case ErrNoActiveBlock:
		return "Tidak ada blokir aktif untuk tipe ini."

	// ─── Ingestion ─────────────────────────────────────────────────────
	case ErrQuestionSetInvalid:
		return "Kumpulan soal tidak valid."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
