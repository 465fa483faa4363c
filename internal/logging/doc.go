// Package logging provides structured logging utilities for ohq-bluejeans.
//
// It centralizes attribute naming and PII handling on top of log/slog.
//
// # Usage Patterns
//
// Attach standard attributes to a log entry:
//
//	logger.Info("user lookup finished",
//	    logging.Operation("get_user"),
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("meeting provisioned",
//	    logging.UserHash(email))
//
// # Security Considerations
//
//   - Assignee emails are hashed to prevent PII leakage while allowing correlation
//   - Access tokens are never logged directly, only their length
package logging
