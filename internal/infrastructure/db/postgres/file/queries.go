package file

// Listing sorts newest-first; the bigserial id breaks created_at ties
// so repeated calls agree on the order.
const (
	SelectFiles = `
		SELECT uuid, name, mime_type, size_bytes, storage_path, created_at
		FROM files
		ORDER BY created_at DESC, id DESC
	`
	InsertFile = `
		INSERT INTO files (name, mime_type, size_bytes, storage_path)
		VALUES ($1, $2, $3, $4)
		RETURNING
		  uuid, name, mime_type, size_bytes, storage_path, created_at
	`
	DeleteFileByUUID = `
		DELETE FROM files
		WHERE uuid = $1
	`
)
