package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal    = "local"
	StorageSupabase = "supabase"
	StorageMinio    = "minio"
	StorageOSS      = "oss"
)

// 内容导入支持的文件类型
var AllowedBundleExtensions = []string{".yaml", ".yml", ".json", ".xlsx"}

const (
	// SessionKey is the gin context key holding the caller's session.
	SessionKey = "session"
	// AccessTokenQuery lets WebSocket clients pass the token in the URL.
	AccessTokenQuery = "token"
)
