package queue

import (
	"database/sql"
	"errors"
	"time"
)

const downloadColumns = "id, title, author, source, content_type, status, request_id, requested_by, file_path, progress_percent, progress_message, error_message, created_at, updated_at"

const requestColumns = "id, uuid, title, author, source, content_type, mode, note, status, username, decided_by, download_id, created_at, updated_at"

const userColumns = "id, username, role, can_download, created_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id              int64
		title           string
		author          sql.NullString
		source          string
		contentType     string
		statusStr       string
		requestID       sql.NullInt64
		requestedBy     sql.NullString
		filePath        sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		errorMessage    sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&author,
		&source,
		&contentType,
		&statusStr,
		&requestID,
		&requestedBy,
		&filePath,
		&progressPercent,
		&progressMessage,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		Title:           title,
		Author:          author.String,
		Source:          source,
		ContentType:     contentType,
		Status:          Status(statusStr),
		RequestID:       requestID.Int64,
		RequestedBy:     requestedBy.String,
		FilePath:        filePath.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		ErrorMessage:    errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func scanRequest(scanner interface{ Scan(dest ...any) error }) (*Request, error) {
	var (
		id          int64
		uuidStr     string
		title       string
		author      sql.NullString
		source      string
		contentType string
		mode        string
		note        sql.NullString
		statusStr   string
		username    string
		decidedBy   sql.NullString
		downloadID  sql.NullInt64
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&uuidStr,
		&title,
		&author,
		&source,
		&contentType,
		&mode,
		&note,
		&statusStr,
		&username,
		&decidedBy,
		&downloadID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	request := &Request{
		ID:          id,
		UUID:        uuidStr,
		Title:       title,
		Author:      author.String,
		Source:      source,
		ContentType: contentType,
		Mode:        mode,
		Note:        note.String,
		Status:      RequestStatus(statusStr),
		Username:    username,
		DecidedBy:   decidedBy.String,
		DownloadID:  downloadID.Int64,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		request.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		request.UpdatedAt = updated
	}
	return request, nil
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (*User, error) {
	var (
		id          int64
		username    string
		role        string
		canDownload sql.NullInt64
		createdRaw  sql.NullString
	)

	if err := scanner.Scan(&id, &username, &role, &canDownload, &createdRaw); err != nil {
		return nil, err
	}

	user := &User{
		ID:       id,
		Username: username,
		Role:     Role(role),
	}
	if canDownload.Valid {
		user.CanDownload = canDownload.Int64 != 0
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		user.CreatedAt = created
	}
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableID(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
