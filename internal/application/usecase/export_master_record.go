package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/domain/port"
)

const (
	exportFolder = "master_user_list"
	exportName   = "master_user_list.csv"
)

var exportHeader = []string{"UID", "Name", "Email", "Phone", "Status", "Limit", "Score", "ID Front", "ID Back", "Selfie"}

// ExportMasterRecordUseCase writes every profile to a CSV file on the
// document host. Callers must hold the admin role.
type ExportMasterRecordUseCase struct {
	profiles port.ProfileStore
	host     port.DocumentHost
	logger   *slog.Logger
}

// NewExportMasterRecordUseCase wires dependencies.
func NewExportMasterRecordUseCase(profiles port.ProfileStore, host port.DocumentHost, logger *slog.Logger) *ExportMasterRecordUseCase {
	return &ExportMasterRecordUseCase{profiles: profiles, host: host, logger: logger}
}

// Execute exports the master record and returns its URL. Each export
// replaces the previous file.
func (uc *ExportMasterRecordUseCase) Execute(ctx context.Context) (dto.ExportResponse, error) {
	profiles, err := uc.profiles.List(ctx)
	if err != nil {
		return dto.ExportResponse{}, fmt.Errorf("list profiles: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return dto.ExportResponse{}, fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range profiles {
		docs := p.Documents()
		row := []string{
			p.UID(),
			p.FullName(),
			p.Email(),
			p.Phone().String(),
			p.Status().String(),
			p.EligibleLimit().StringFixed(0),
			strconv.Itoa(p.CreditScore()),
			docs.IDFrontURL,
			docs.IDBackURL,
			docs.SelfieURL,
		}
		if err := w.Write(row); err != nil {
			return dto.ExportResponse{}, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return dto.ExportResponse{}, fmt.Errorf("flush csv: %w", err)
	}

	size := int64(buf.Len())
	url, err := uc.host.Upload(ctx, port.Document{
		Folder:      exportFolder,
		Name:        exportName,
		ContentType: "text/csv",
		Size:        size,
		Body:        &buf,
	})
	if err != nil {
		return dto.ExportResponse{}, fmt.Errorf("upload master record: %w", err)
	}

	uc.logger.InfoContext(ctx, "master record exported", "rows", len(profiles), "bytes", size)
	return dto.ExportResponse{URL: url, Rows: len(profiles)}, nil
}
