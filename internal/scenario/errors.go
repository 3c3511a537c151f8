package scenario

import "errors"

var (
	// ErrInvalidTransition indicates an operation illegal in the current edit state.
	ErrInvalidTransition = errors.New("scenario: invalid edit state transition")
	// ErrWidgetNotFound indicates no widget with the requested header is rendered.
	ErrWidgetNotFound = errors.New("scenario: widget not found")
	// ErrStaleStagedWidget indicates a paste of a widget that is not the session's latest copy.
	ErrStaleStagedWidget = errors.New("scenario: staged widget is not the latest copy")
	// ErrCrossContextPaste indicates the application refused to paste a widget copied on another
	// dashboard kind.
	ErrCrossContextPaste = errors.New("scenario: widget copied from another dashboard kind")
	// ErrCrossContextPasteOffered indicates the application offers to paste a widget copied on
	// another dashboard kind.
	ErrCrossContextPasteOffered = errors.New("scenario: paste offered for a widget copied from another dashboard kind")
	// ErrPasteUnavailable indicates the application offers no paste action.
	ErrPasteUnavailable = errors.New("scenario: paste is not available")
	// ErrMissingDashboard indicates a driver constructed without a dashboard.
	ErrMissingDashboard = errors.New("scenario: missing dashboard")
)
