package minio

import (
	"context"
	"errors"
	"net/http"

	"github.com/koustreak/dsqldump/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
)

// mapError classifies a failed storage call. op names the call ("upload",
// "stat", "check bucket") and target is the s3:// URL it addressed.
func mapError(err error, op, target string) *errs.Error {
	if err == nil {
		return nil
	}
	msg := op + " " + target

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg+" interrupted", err)
	}

	var resp miniogo.ErrorResponse
	if !errors.As(err, &resp) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg+": storage endpoint unreachable", err)
	}

	switch resp.Code {
	case "NoSuchBucket":
		return errs.Wrap(errs.ErrKindNotFound, msg+": bucket does not exist", err)
	case "NoSuchKey":
		return errs.Wrap(errs.ErrKindNotFound, msg+": object does not exist", err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
		return errs.Wrap(errs.ErrKindPermissionDenied, msg+": credentials rejected", err)
	case "EntityTooLarge":
		return errs.Wrap(errs.ErrKindInvalidInput, msg+": dump exceeds the object size limit", err)
	case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
		return errs.Wrap(errs.ErrKindInvalidInput, msg+": invalid bucket or key", err)
	case "RequestTimeout", "SlowDown":
		return errs.Wrap(errs.ErrKindTimeout, msg+": storage throttled the upload", err)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return errs.Wrap(errs.ErrKindNotFound, msg+": not found", err)
	case http.StatusForbidden, http.StatusUnauthorized:
		return errs.Wrap(errs.ErrKindPermissionDenied, msg+": credentials rejected", err)
	case http.StatusBadRequest:
		return errs.Wrap(errs.ErrKindInvalidInput, msg+": request rejected", err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg+" failed", err)
}

func objectURL(bucket, key string) string {
	if key == "" {
		return "s3://" + bucket
	}
	return "s3://" + bucket + "/" + key
}
