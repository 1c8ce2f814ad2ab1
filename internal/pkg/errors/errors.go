package errors

import "errors"

// Custom application errors
var (
	ErrValidation        = errors.New("リマインダーの入力内容が不正です")        // Invalid reminder fields (empty name, malformed time)
	ErrRemoteUnavailable = errors.New("変更を保存できませんでした")            // Remote store list/replace failed; changes were not saved
	ErrScheduling        = errors.New("通知のスケジューリングに失敗しました")      // A single trigger could not be scheduled or cancelled
	ErrPermissionDenied  = errors.New("通知の許可が必要です")               // Local notification permission is not granted
	ErrReminderNotFound  = errors.New("リマインダーが見つかりません")          // Reminder id not present in the working set
	ErrCommitInProgress  = errors.New("保存処理の実行中です")               // Another commit is running for this session
	ErrLoadInProgress    = errors.New("リマインダーの読み込み中です")          // Commit attempted while a load is still running
	ErrNotLoaded         = errors.New("リマインダーが読み込まれていません")      // Commit attempted before the first load
	ErrSessionEnded      = errors.New("セッションは終了しました")            // Session was closed by logout
	ErrUserNotFound      = errors.New("ユーザーが見つかりません")            // User not found
	ErrDatabaseOperation = errors.New("データベース操作に失敗しました")         // Generic database error
	ErrLineAPI           = errors.New("LINE APIとの通信に失敗しました")     // Generic LINE API error
	ErrInternalServer    = errors.New("内部サーバーエラーが発生しました")        // Generic internal error
)
