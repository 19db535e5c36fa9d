package errors

import "errors"

// Suggestions maps error conditions to usage hints shown in chat.
var Suggestions = map[error]string{
	ErrParseFailure: "輸入「小精靈 幫助」查看指令說明",
	ErrNotFound:     "請確認名稱，或加上時間與地點，例如：小精靈 查詢 奪命鎖鏈1 (6/20 16:00 台北)",
	ErrAmbiguous:    "請使用附加條件，例如：小精靈 找主題 奪命鎖鏈 (台北 1)",
	ErrConflict:     "請改選其他時段",
	ErrPastTime:     "活動時間必須是未來時間",
	ErrUpstream:     "請稍後再試",
}

// GetSuggestion returns a suggestion for an error, if available.
// A UserError's own suggestion wins over the category hint.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}

	for _, known := range []error{ErrParseFailure, ErrAmbiguous, ErrNotFound, ErrConflict, ErrPastTime, ErrUpstream} {
		if errors.Is(err, known) {
			return Suggestions[known]
		}
	}
	return ""
}
