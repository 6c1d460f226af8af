package sqlite

const (
	upsertQuery = `
        INSERT INTO videos (
            url, title_option_1, title_option_2, title_option_3,
            summary, transcription, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(url) DO UPDATE SET
            title_option_1 = excluded.title_option_1,
            title_option_2 = excluded.title_option_2,
            title_option_3 = excluded.title_option_3,
            summary = excluded.summary,
            transcription = excluded.transcription,
            updated_at = excluded.updated_at
    `

	getByURLQuery = `
        SELECT url, title_option_1, title_option_2, title_option_3,
               summary, transcription, created_at, updated_at
        FROM videos WHERE url = ?
    `
)
