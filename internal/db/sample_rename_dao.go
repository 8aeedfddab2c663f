package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/didi/gendry/builder"
)

const sampleRenameTableName = "sample_rename_tab"

var SampleRenameDao = NewSampleRenameDao(Default)

// SampleRename is one journaled hash rename.
type SampleRename struct {
	ID           int64
	Digest       string
	OriginalName string
	Folder       string
	FileSize     int64
	CreateTime   int64
}

// SampleRenameQuery filters List. An empty Digest matches every row.
type SampleRenameQuery struct {
	Digest string
	Limit  uint
}

type sampleRenameDao struct {
	dbGetter DatabaseGetter
}

func NewSampleRenameDao(getter DatabaseGetter) *sampleRenameDao {
	return &sampleRenameDao{dbGetter: getter}
}

// Insert appends a rename record. CreateTime defaults to now.
func (dao *sampleRenameDao) Insert(ctx context.Context, rec SampleRename) error {
	db := dao.dbGetter()
	if db == nil {
		return fmt.Errorf("sample rename dao not initialised")
	}
	if rec.CreateTime == 0 {
		rec.CreateTime = time.Now().Unix()
	}
	payload := []map[string]interface{}{{
		"digest":        strings.ToLower(rec.Digest),
		"original_name": rec.OriginalName,
		"folder":        rec.Folder,
		"file_size":     rec.FileSize,
		"create_time":   rec.CreateTime,
	}}
	insertSQL, args, err := builder.BuildInsert(sampleRenameTableName, payload)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, insertSQL, args...); err != nil {
		return fmt.Errorf("insert sample rename: %w", err)
	}
	return nil
}

// List returns records newest first.
func (dao *sampleRenameDao) List(ctx context.Context, q SampleRenameQuery) ([]SampleRename, error) {
	db := dao.dbGetter()
	if db == nil {
		return nil, fmt.Errorf("sample rename dao not initialised")
	}
	where := map[string]interface{}{
		"_orderby": "create_time desc, id desc",
	}
	if q.Digest != "" {
		where["digest"] = strings.ToLower(q.Digest)
	}
	if q.Limit > 0 {
		where["_limit"] = []uint{0, q.Limit}
	}
	fields := []string{"id", "digest", "original_name", "folder", "file_size", "create_time"}
	query, args, err := builder.BuildSelect(sampleRenameTableName, where, fields)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sample rename: %w", err)
	}
	defer rows.Close()

	var result []SampleRename
	for rows.Next() {
		var rec SampleRename
		if err := rows.Scan(&rec.ID, &rec.Digest, &rec.OriginalName, &rec.Folder, &rec.FileSize, &rec.CreateTime); err != nil {
			return nil, fmt.Errorf("scan sample rename: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
