package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	apperrors "ocr-ledger-reconciliation/pkg/errors"
	"ocr-ledger-reconciliation/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler turns pipeline errors into operator-facing messages and
// process exit codes.
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints the error for the operator and returns the exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("command failed")

	if reviewErr, ok := apperrors.AsReviewError(err); ok {
		return h.handleReviewError(reviewErr)
	}

	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleReviewError(err *apperrors.ReviewError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContexto:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSugerencia: %s\n", err.Suggestion)
	}

	if help := categoryHelp(err.Category); help != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", help)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nCausa: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		fmt.Fprintf(os.Stderr, "Error de archivo: %v\n", err)
		fmt.Fprintf(os.Stderr, "Verifique la ruta y los permisos.\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func categoryHelp(category apperrors.ErrorCategory) string {
	switch category {
	case apperrors.CategoryParse:
		return "Los archivos de entrada deben ser el JSON de extracción y el snapshot de cuentas."
	case apperrors.CategoryExtraction:
		return "La extracción trae errores del OCR; corrija el documento fuente y vuelva a extraer."
	case apperrors.CategoryResolution:
		return "Hay entidades sin resolver; asígnelas manualmente o elimine las líneas ilegibles."
	case apperrors.CategoryReconciliation:
		return "El corte no cuadra; revise el reporte para el detalle por cuenta."
	case apperrors.CategoryCommit:
		return "La confirmación no se aplicó; sus ediciones se conservaron."
	default:
		return ""
	}
}
