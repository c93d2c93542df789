package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appConfig "github.com/garagedesk/garagedesk-api/config"
)

// DocumentStore archives generated invoice documents. Archival is a
// best-effort side effect: the invoice row in the database remains the
// authoritative snapshot.
type DocumentStore interface {
	ArchiveInvoice(invoiceNumber string, content []byte) (string, error)
	GetPresignedURL(key string) (string, error)
}

// S3DocumentStore stores invoice documents in an S3 bucket
type S3DocumentStore struct {
	client *s3.Client
	bucket string
}

var documentStoreInstance DocumentStore

// InitDocumentStore initializes the S3-backed document store
func InitDocumentStore() (DocumentStore, error) {
	cfg := appConfig.GetConfig()

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.AWSRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig)
	documentStoreInstance = &S3DocumentStore{
		client: client,
		bucket: cfg.AWSS3Bucket,
	}
	return documentStoreInstance, nil
}

// GetDocumentStore returns the initialized document store instance
func GetDocumentStore() DocumentStore {
	return documentStoreInstance
}

// SetDocumentStore sets the document store instance (primarily for testing)
func SetDocumentStore(store DocumentStore) {
	documentStoreInstance = store
}

// ArchiveInvoice uploads the rendered document and returns its S3 key
func (s *S3DocumentStore) ArchiveInvoice(invoiceNumber string, content []byte) (string, error) {
	key := fmt.Sprintf("invoices/%s.html", invoiceNumber)

	_, err := s.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/html"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload invoice document: %w", err)
	}
	return key, nil
}

// GetPresignedURL generates a temporary download URL for an archived document
func (s *S3DocumentStore) GetPresignedURL(key string) (string, error) {
	presigner := s3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign document URL: %w", err)
	}
	return req.URL, nil
}
