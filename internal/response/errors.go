package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Session ───────────────────────────────────────────────────────
	ErrTokenRequired   ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid    ErrCode = "TOKEN_INVALID"
	ErrTokenExpired    ErrCode = "TOKEN_EXPIRED"
	ErrSessionNotFound ErrCode = "SESSION_EXPIRED"

	// ─── Request ───────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Study period ──────────────────────────────────────────────────
	ErrDateParse ErrCode = "PARSE_ERROR"
	ErrOrdering  ErrCode = "ORDERING_ERROR"

	// ─── Subjects ──────────────────────────────────────────────────────
	ErrPageParse       ErrCode = "PAGE_PARSE_ERROR"
	ErrFormat          ErrCode = "FORMAT_ERROR"
	ErrRange           ErrCode = "RANGE_ERROR"
	ErrSchedule        ErrCode = "SCHEDULE_ERROR"
	ErrPrecondition    ErrCode = "PRECONDITION_ERROR"
	ErrRequiredFields  ErrCode = "REQUIRED_FIELDS"
	ErrNoSubjects      ErrCode = "NO_SUBJECTS"
	ErrNotEditing      ErrCode = "NOT_EDITING"
	ErrIndexOutOfRange ErrCode = "INDEX_OUT_OF_RANGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Session ───────────────────────────────────────────────────────
	case ErrTokenRequired:
		return "세션 토큰이 필요합니다."
	case ErrTokenInvalid:
		return "세션 토큰이 올바르지 않습니다."
	case ErrTokenExpired:
		return "세션 토큰이 만료되었습니다."
	case ErrSessionNotFound:
		return "세션이 만료되었습니다. 새 세션을 시작해주세요."

	// ─── Request ───────────────────────────────────────────────────────
	case ErrValidation:
		return "입력값을 확인해주세요."
	case ErrInvalidID:
		return "번호 형식이 올바르지 않습니다."

	// ─── Study period ──────────────────────────────────────────────────
	case ErrDateParse:
		return "❌ 날짜 형식이 올바르지 않습니다. 예: 7/15"
	case ErrOrdering:
		return "❌ 시험 날짜는 공부 시작 날짜보다 이후여야 합니다."

	// ─── Subjects ──────────────────────────────────────────────────────
	case ErrPageParse:
		return "숫자를 정확히 입력했는지 확인하세요."
	case ErrFormat:
		return "시험 범위는 '숫자~숫자' 형식이어야 합니다."
	case ErrRange:
		return "❌ 끝 페이지가 시작 페이지보다 작거나 같습니다."
	case ErrSchedule:
		return "❌ 시험 기간이 올바르지 않습니다."
	case ErrPrecondition:
		return "❌ 시험 날짜를 먼저 입력하고 저장해야 합니다."
	case ErrRequiredFields:
		return "모든 항목을 입력해주세요."
	case ErrNoSubjects:
		return "과목 수정할 데이터가 없습니다."
	case ErrNotEditing:
		return "과목 수정을 먼저 시작해주세요."
	case ErrIndexOutOfRange:
		return "선택한 과목이 없습니다."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "요청이 너무 많습니다. 잠시 후 다시 시도해주세요."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "알 수 없는 오류가 발생했습니다."
	default:
		return "알 수 없는 오류가 발생했습니다."
	}
}
