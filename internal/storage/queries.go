package storage

const (
	createDocumentsTableQuery = `
		CREATE TABLE IF NOT EXISTS kv_documents (
			namespace TEXT NOT NULL,
			collection TEXT NOT NULL,
			value JSONB NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (namespace, collection)
		)
	`

	getDocumentQuery = `
		SELECT value FROM kv_documents
		WHERE namespace = $1 AND collection = $2
	`

	upsertDocumentQuery = `
		INSERT INTO kv_documents (namespace, collection, value, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (namespace, collection) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`

	// wraps a stored non-array value into a one-element array before appending
	appendDocumentQuery = `
		INSERT INTO kv_documents (namespace, collection, value, updated_at)
		VALUES ($1, $2, jsonb_build_array($3::jsonb), NOW())
		ON CONFLICT (namespace, collection) DO UPDATE SET
			value = CASE
				WHEN jsonb_typeof(kv_documents.value) = 'array'
					THEN kv_documents.value || jsonb_build_array($3::jsonb)
				WHEN jsonb_typeof(kv_documents.value) = 'null'
					THEN jsonb_build_array($3::jsonb)
				ELSE jsonb_build_array(kv_documents.value, $3::jsonb)
			END,
			updated_at = NOW()
	`

	deleteDocumentQuery = `
		DELETE FROM kv_documents
		WHERE namespace = $1 AND collection = $2
	`
)
