// Package storage holds the vault file store and the per-chat session store.
package storage

// Files is the subset of vault operations the note writers depend on.
type Files interface {
	Resolve(rel string) string
	Exists(rel string) bool
	ReadText(rel string) (string, error)
	WriteText(rel, content string) (string, error)
	EnsureFile(rel, defaultContent string) (string, error)
	WriteNew(rel, content string) (string, error)
}

// SessionStore keeps one value per chat.
type SessionStore[T any] interface {
	Get(chatID int64) (T, bool)
	Save(chatID int64, value T)
	Delete(chatID int64)
}
