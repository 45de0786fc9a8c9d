// Package logger wraps zap with a global sugared logger that writes a colored
// console format to stderr, keeping stdout free for the launched server.
//
// Services carry the logger in a context (ToContext/FromContext/WithName/WithKV)
// and log through the package-level helpers (Infof, WarnKV, etc.).
package logger
