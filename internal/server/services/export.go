package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/logging"
	sc "github.com/dmitrijs2005/sharedtodo/internal/server/config"
	"github.com/dmitrijs2005/sharedtodo/internal/server/history"
	"github.com/dmitrijs2005/sharedtodo/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ExportLinkValidity is how long a presigned export link stays usable.
const ExportLinkValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// HistoryReport is the document uploaded by ExportHistory.
type HistoryReport struct {
	ItemID      string             `json:"itemId"`
	SpaceID     string             `json:"spaceId"`
	Text        string             `json:"text"`
	Year        int                `json:"year"`
	CreatorID   string             `json:"creatorId"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Statistics  history.Statistics `json:"statistics"`
	Days        []history.DayCell  `json:"days"`
}

// ExportResult locates an uploaded report.
type ExportResult struct {
	Key string
	URL string
}

// ExportService uploads year reports of an item to S3-compatible storage.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
	location    *time.Location
	now         func() time.Time
}

func NewExportService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *ExportService {
	return &ExportService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		logger:      logger.With("module", "export"),
		location:    config.Location(),
		now:         time.Now,
	}
}

// ExportKey returns a fresh object key for a report.
func ExportKey(spaceID, itemID string, year int) string {
	return fmt.Sprintf("exports/%s/%s/%d-%v.json", spaceID, itemID, year, uuid.New())
}

func (s *ExportService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, storeError("s3 config", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// BuildReport projects the item's history for year. An empty creatorID
// means the item's creator.
func (s *ExportService) BuildReport(ctx context.Context, itemID string, year int, creatorID string) (*HistoryReport, error) {
	item, err := s.repomanager.Items(s.db).Get(ctx, itemID)
	if err != nil {
		return nil, storeError("export history", err)
	}

	if creatorID == "" {
		creatorID = item.CreatedByID
	}

	now := s.now().In(s.location)
	days := history.BuildYearGrid(item, year, creatorID, now)

	return &HistoryReport{
		ItemID:      item.ID,
		SpaceID:     item.SpaceID,
		Text:        item.Text,
		Year:        year,
		CreatorID:   creatorID,
		GeneratedAt: now,
		Statistics:  history.ComputeStatistics(days),
		Days:        days,
	}, nil
}

// ExportHistory uploads the year report of an item and returns its key
// with a presigned GET URL valid for ExportLinkValidity.
func (s *ExportService) ExportHistory(ctx context.Context, itemID string, year int, creatorID string) (*ExportResult, error) {
	report, err := s.BuildReport(ctx, itemID, year, creatorID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := ExportKey(report.SpaceID, report.ItemID, year)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, storeError("upload report", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ExportLinkValidity))
	if err != nil {
		return nil, storeError("presign report", err)
	}

	s.logger.Info(ctx, "history exported", "item_id", itemID, "year", year, "key", key)
	return &ExportResult{Key: key, URL: req.URL}, nil
}
