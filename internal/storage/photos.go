// Package storage keeps profile photos in S3 and their URLs on the user record.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"FitAI_V1.0/internal/utility"
)

const photoPrefix = "profile-images"

var ErrMissingPhotoFields = errors.New("email and photo required")

type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type UserTable interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Upload is one profile photo submission.
type Upload struct {
	Email        string
	FirstName    string
	LastName     string
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// Profile is what the profile-photo lookup returns. Missing photo and
// createdAt are nil; missing names are empty.
type Profile struct {
	PhotoURL  *string `json:"photoUrl"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	CreatedAt *string `json:"createdAt"`
}

type PhotoService struct {
	objects    ObjectPutter
	users      UserTable
	bucket     string
	usersTable string
}

func NewPhotoService(objects ObjectPutter, users UserTable, bucket, usersTable string) *PhotoService {
	return &PhotoService{objects: objects, users: users, bucket: bucket, usersTable: usersTable}
}

// PublicURL is the virtual-hosted URL of key in the photo bucket.
func (s *PhotoService) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

// Upload stores the photo and records its URL and the user's names.
func (s *PhotoService) Upload(ctx context.Context, up Upload) (string, error) {
	if up.Email == "" || up.Body == nil {
		return "", ErrMissingPhotoFields
	}

	key, err := utility.ObjectKey(photoPrefix, up.OriginalName)
	if err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   up.Body,
	}
	if up.ContentType != "" {
		input.ContentType = aws.String(up.ContentType)
	}
	if up.Size > 0 {
		input.ContentLength = aws.Int64(up.Size)
	}
	if _, err := s.objects.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	imageURL := s.PublicURL(key)

	_, err = s.users.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.usersTable),
		Key:              map[string]dbtypes.AttributeValue{"email": &dbtypes.AttributeValueMemberS{Value: up.Email}},
		UpdateExpression: aws.String("SET profilePhotoUrl = :url, firstName = :fn, lastName = :ln"),
		ExpressionAttributeValues: map[string]dbtypes.AttributeValue{
			":url": &dbtypes.AttributeValueMemberS{Value: imageURL},
			":fn":  &dbtypes.AttributeValueMemberS{Value: up.FirstName},
			":ln":  &dbtypes.AttributeValueMemberS{Value: up.LastName},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to update user record: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("key", key).Msg("Profile photo uploaded")
	return imageURL, nil
}

// Lookup reads the photo URL and names for email.
func (s *PhotoService) Lookup(ctx context.Context, email string) (Profile, error) {
	out, err := s.users.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.usersTable),
		Key:                  map[string]dbtypes.AttributeValue{"email": &dbtypes.AttributeValueMemberS{Value: email}},
		ProjectionExpression: aws.String("profilePhotoUrl, firstName, lastName, createdAt"),
	})
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read user record: %w", err)
	}

	item := out.Item
	return Profile{
		PhotoURL:  utility.StringPtr(stringAttr(item, "profilePhotoUrl")),
		FirstName: stringAttr(item, "firstName"),
		LastName:  stringAttr(item, "lastName"),
		CreatedAt: utility.StringPtr(stringAttr(item, "createdAt")),
	}, nil
}

func stringAttr(item map[string]dbtypes.AttributeValue, name string) string {
	if v, ok := item[name].(*dbtypes.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
