package runner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/fixture"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/provider"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/scenario"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/storage"
	"github.com/MarkoPoloResearchLab/dashcheck/internal/verify"
)

const (
	checkWidgetPresent       = "widget present"
	checkWidgetAbsent        = "widget absent"
	checkWidgetRemoved       = "rendered widgets after delete"
	checkReplacementPosition = "replacement position"
	checkRefreshInterval     = "refresh interval"
	checkCancelSubmit        = "submit before dashboard cancel"
	checkCrossContextPaste   = "cross-context paste"

	labelName            = "Name"
	labelRefreshInterval = "Refresh interval"

	errorMessageUnsupportedAction = "runner: unsupported action"
)

// ErrUnsupportedAction indicates a scenario action the runner cannot drive.
var ErrUnsupportedAction = errors.New(errorMessageUnsupportedAction)

type tableRun struct {
	suite    *Suite
	driver   *scenario.Driver
	registry *fixture.Registry
	table    provider.Table
	view     scenario.View
}

func (run *tableRun) session() *scenario.Session {
	return run.driver.Session()
}

// execute drives one row and verifies the persisted result: the configuration hash moves only
// when the row mutates configuration and the widget count moves by the expected delta.
func (run *tableRun) execute(ctx context.Context, row provider.Row) error {
	store := run.suite.store
	projection := storage.DashboardWidgetsProjection(run.table.Dashboard)
	countQuery := storage.DashboardWidgetCount(run.table.Dashboard)

	hashBefore, hashErr := store.ConfigurationHash(ctx, projection)
	if hashErr != nil {
		return hashErr
	}
	countBefore, countErr := store.CountRows(ctx, countQuery)
	if countErr != nil {
		return countErr
	}

	var actionErr error
	switch row.Action {
	case model.ActionCreate:
		actionErr = run.create(ctx, row)
	case model.ActionUpdate:
		actionErr = run.update(ctx, row)
	case model.ActionCancelCreate:
		actionErr = run.cancelCreate(ctx, row)
	case model.ActionCancelUpdate:
		actionErr = run.cancelUpdate(ctx, row)
	case model.ActionDelete:
		actionErr = run.delete(ctx, row)
	case model.ActionCopyPaste:
		actionErr = run.copyPaste(ctx, row)
	case model.ActionReplace:
		actionErr = run.replace(ctx, row)
	default:
		actionErr = fmt.Errorf("%w: %q", ErrUnsupportedAction, row.Action)
	}
	if actionErr != nil {
		return actionErr
	}

	hashAfter, hashErr := store.ConfigurationHash(ctx, projection)
	if hashErr != nil {
		return hashErr
	}
	if row.MutatesConfiguration() {
		if changedErr := verify.AssertConfigurationChanged(hashBefore, hashAfter); changedErr != nil {
			return changedErr
		}
	} else if unchangedErr := verify.AssertConfigurationUnchanged(hashBefore, hashAfter); unchangedErr != nil {
		return unchangedErr
	}
	return verify.AssertRowCount(ctx, store, countQuery, countBefore+int64(row.ExpectedRowDelta()))
}

// commit submits the form and saves the dashboard. Whatever the application rejects is discarded
// so the session is back in the viewing state, and the deciding outcome is returned.
func (run *tableRun) commit(ctx context.Context, form *scenario.FormHandle) (scenario.Outcome, error) {
	outcome, submitErr := run.driver.SubmitForm(ctx, form)
	if submitErr != nil {
		return scenario.Outcome{}, submitErr
	}
	if outcome.Class != model.OutcomeSuccess {
		if cancelErr := run.driver.CancelForm(ctx, form); cancelErr != nil {
			return scenario.Outcome{}, cancelErr
		}
		return outcome, run.driver.CancelEditing(ctx)
	}
	return run.save(ctx)
}

func (run *tableRun) save(ctx context.Context) (scenario.Outcome, error) {
	outcome, saveErr := run.driver.SaveDashboard(ctx)
	if saveErr != nil {
		return scenario.Outcome{}, saveErr
	}
	if outcome.Class != model.OutcomeSuccess {
		return outcome, run.driver.CancelEditing(ctx)
	}
	return outcome, nil
}

func checkOutcome(row provider.Row, outcome scenario.Outcome) error {
	if outcomeErr := verify.AssertOutcome(row.Expected, row.ExpectedErrors(), outcome); outcomeErr != nil {
		return outcomeErr
	}
	if row.Message != nil {
		return verify.AssertMessage(*row.Message, outcome.Message)
	}
	return nil
}

func (run *tableRun) fill(ctx context.Context, form *scenario.FormHandle, row provider.Row) error {
	if fillErr := run.driver.FillForm(ctx, form, row.Inputs()); fillErr != nil {
		_ = run.driver.CancelForm(ctx, form)
		return fillErr
	}
	return nil
}

func (run *tableRun) create(ctx context.Context, row provider.Row) error {
	form, openErr := run.driver.OpenNewWidgetForm(ctx, row.WidgetType)
	if openErr != nil {
		return openErr
	}
	if fillErr := run.fill(ctx, form, row); fillErr != nil {
		return fillErr
	}
	outcome, commitErr := run.commit(ctx, form)
	if commitErr != nil {
		return commitErr
	}
	if outcomeErr := checkOutcome(row, outcome); outcomeErr != nil || outcome.Class != model.OutcomeSuccess {
		return outcomeErr
	}
	name, _ := row.Inputs().Lookup(labelName)
	return run.verifyWidget(ctx, row, model.ResolveHeaderName(row.WidgetType, name.Text))
}

func (run *tableRun) update(ctx context.Context, row provider.Row) error {
	before, captureErr := run.driver.CaptureSnapshot(ctx, row.Target)
	if captureErr != nil {
		return captureErr
	}
	widget, locateErr := run.driver.LocateWidget(ctx, before.Header)
	if locateErr != nil {
		return locateErr
	}
	form, openErr := run.driver.OpenWidgetForm(ctx, widget)
	if openErr != nil {
		return openErr
	}
	if fillErr := run.fill(ctx, form, row); fillErr != nil {
		return fillErr
	}
	outcome, commitErr := run.commit(ctx, form)
	if commitErr != nil {
		return commitErr
	}
	if outcomeErr := checkOutcome(row, outcome); outcomeErr != nil || outcome.Class != model.OutcomeSuccess {
		return outcomeErr
	}
	header := before.Header
	if name, renamed := row.Inputs().Lookup(labelName); renamed {
		header = model.ResolveHeaderName(before.Type, name.Text)
	}
	return run.verifyWidget(ctx, row, header)
}

// verifyWidget checks a created or updated widget: it is locatable under its resolved header,
// its form reproduces the filled values and it renders as expected. The header becomes the
// session's current widget.
func (run *tableRun) verifyWidget(ctx context.Context, row provider.Row, header string) error {
	if row.Header != "" {
		if headerErr := verify.AssertHeader(row.Header, header); headerErr != nil {
			return headerErr
		}
	}
	exists, existsErr := run.driver.WidgetExists(ctx, header)
	if existsErr != nil {
		return existsErr
	}
	if !exists {
		return &verify.AssertionError{Check: checkWidgetPresent, Expected: fmt.Sprintf("%q", header), Actual: "not found"}
	}
	run.session().CurrentWidgetName = header

	snapshot, captureErr := run.driver.CaptureSnapshot(ctx, header)
	if captureErr != nil {
		return captureErr
	}
	if fieldsErr := verify.AssertFieldValues(row.Inputs(), snapshot.Fields); fieldsErr != nil {
		return fieldsErr
	}
	if row.RefreshInterval != "" {
		refreshState, found := snapshot.Fields.Lookup(labelRefreshInterval)
		resolved := ""
		if found {
			resolved = model.ResolveRefreshInterval(snapshot.Type, refreshState.Value.Text)
		}
		if resolved != row.RefreshInterval {
			return &verify.AssertionError{Check: checkRefreshInterval, Expected: row.RefreshInterval, Actual: resolved}
		}
	}
	return run.verifyRendering(ctx, row, header)
}

func (run *tableRun) verifyRendering(ctx context.Context, row provider.Row, header string) error {
	if row.Table == nil && row.Screenshot == nil {
		return nil
	}
	widget, locateErr := run.driver.LocateWidget(ctx, header)
	if locateErr != nil {
		return locateErr
	}
	if row.Table != nil {
		table, tableErr := widget.Table(ctx)
		if tableErr != nil {
			return tableErr
		}
		if assertErr := verify.AssertRenderedTable(*row.Table, table); assertErr != nil {
			return assertErr
		}
	}
	if row.Screenshot == nil {
		return nil
	}
	check := func(ctx context.Context) error {
		screenshot, screenshotErr := widget.Screenshot(ctx)
		if screenshotErr != nil {
			return screenshotErr
		}
		return verify.AssertScreenshotRegion(screenshot, image.Rectangle{}, *row.Screenshot)
	}
	if row.ScreenshotRetry {
		return verify.RetryOnce(ctx, run.suite.config.ScreenshotRetryDelay, check)
	}
	return check(ctx)
}

// discard leaves a filled form at the row's cancel point and then cancels the edit session.
func (run *tableRun) discard(ctx context.Context, form *scenario.FormHandle, row provider.Row) error {
	if row.CancelPoint == model.CancelPointDashboard {
		outcome, submitErr := run.driver.SubmitForm(ctx, form)
		if submitErr != nil {
			return submitErr
		}
		if outcome.Class != model.OutcomeSuccess {
			_ = run.driver.CancelForm(ctx, form)
			_ = run.driver.CancelEditing(ctx)
			return &verify.AssertionError{Check: checkCancelSubmit, Expected: string(model.OutcomeSuccess), Actual: fmt.Sprintf("%s %q", outcome.Class, outcome.Messages)}
		}
	} else if cancelErr := run.driver.CancelForm(ctx, form); cancelErr != nil {
		return cancelErr
	}
	return run.driver.CancelEditing(ctx)
}

func (run *tableRun) cancelCreate(ctx context.Context, row provider.Row) error {
	form, openErr := run.driver.OpenNewWidgetForm(ctx, row.WidgetType)
	if openErr != nil {
		return openErr
	}
	if fillErr := run.fill(ctx, form, row); fillErr != nil {
		return fillErr
	}
	if discardErr := run.discard(ctx, form, row); discardErr != nil {
		return discardErr
	}
	name, named := row.Inputs().Lookup(labelName)
	if !named {
		return nil
	}
	return run.assertAbsent(ctx, model.ResolveHeaderName(row.WidgetType, name.Text))
}

func (run *tableRun) cancelUpdate(ctx context.Context, row provider.Row) error {
	before, captureErr := run.driver.CaptureSnapshot(ctx, row.Target)
	if captureErr != nil {
		return captureErr
	}
	widget, locateErr := run.driver.LocateWidget(ctx, before.Header)
	if locateErr != nil {
		return locateErr
	}
	form, openErr := run.driver.OpenWidgetForm(ctx, widget)
	if openErr != nil {
		return openErr
	}
	if fillErr := run.fill(ctx, form, row); fillErr != nil {
		return fillErr
	}
	if discardErr := run.discard(ctx, form, row); discardErr != nil {
		return discardErr
	}
	after, captureErr := run.driver.CaptureSnapshot(ctx, before.Header)
	if captureErr != nil {
		return captureErr
	}
	return verify.AssertSnapshotsEqual(before, after, true)
}

// delete removes one widget and expects exactly one fewer widget rendered under its header and
// persisted under its stored name. Widgets with a default name are stored with an empty name.
func (run *tableRun) delete(ctx context.Context, row provider.Row) error {
	before, captureErr := run.driver.CaptureSnapshot(ctx, row.Target)
	if captureErr != nil {
		return captureErr
	}
	renderedBefore, renderedErr := run.driver.CountWidgets(ctx, before.Header)
	if renderedErr != nil {
		return renderedErr
	}
	storedQuery := storage.DashboardWidgetCountByName(run.table.Dashboard, storedName(before))
	storedBefore, storedErr := run.suite.store.CountRows(ctx, storedQuery)
	if storedErr != nil {
		return storedErr
	}

	if deleteErr := run.driver.DeleteWidget(ctx, before.Header); deleteErr != nil {
		return deleteErr
	}
	outcome, saveErr := run.save(ctx)
	if saveErr != nil {
		return saveErr
	}
	if outcomeErr := checkOutcome(row, outcome); outcomeErr != nil || outcome.Class != model.OutcomeSuccess {
		return outcomeErr
	}

	renderedAfter, renderedErr := run.driver.CountWidgets(ctx, before.Header)
	if renderedErr != nil {
		return renderedErr
	}
	if renderedAfter != renderedBefore-1 {
		return &verify.AssertionError{
			Check:    checkWidgetRemoved,
			Expected: fmt.Sprintf("%d %q", renderedBefore-1, before.Header),
			Actual:   fmt.Sprintf("%d", renderedAfter),
		}
	}
	return verify.AssertRowCount(ctx, run.suite.store, storedQuery, storedBefore-1)
}

func storedName(snapshot model.WidgetSnapshot) string {
	name, _ := snapshot.Fields.Lookup(labelName)
	return strings.TrimSpace(name.Value.Text)
}

func (run *tableRun) assertAbsent(ctx context.Context, header string) error {
	exists, existsErr := run.driver.WidgetExists(ctx, header)
	if existsErr != nil {
		return existsErr
	}
	if exists {
		return &verify.AssertionError{Check: checkWidgetAbsent, Expected: fmt.Sprintf("no %q", header), Actual: "found"}
	}
	return nil
}

// stage copies the row's source widget, on the dashboard the row copies from when it names one,
// and leaves the driver viewing the table's dashboard.
func (run *tableRun) stage(ctx context.Context, row provider.Row) (scenario.StagedWidget, error) {
	if row.CopyFrom == nil {
		return run.driver.CopyWidget(ctx, row.Source)
	}
	if openErr := run.driver.OpenView(ctx, ResolveCopySource(run.registry, *row.CopyFrom)); openErr != nil {
		return scenario.StagedWidget{}, openErr
	}
	staged, copyErr := run.driver.CopyWidget(ctx, row.Source)
	if copyErr != nil {
		_ = run.driver.Reset(ctx)
	}
	if returnErr := run.driver.OpenView(ctx, run.view); returnErr != nil {
		return scenario.StagedWidget{}, fmt.Errorf("%s: %w", errorMessageOpenTable, returnErr)
	}
	return staged, copyErr
}

// checkPasteAvailable compares the row's paste_available expectation with what the application
// offers. It reports whether the row goes on to paste; a row expecting no paste stops here.
func (run *tableRun) checkPasteAvailable(ctx context.Context, row provider.Row) (bool, error) {
	if row.PasteAvailable == nil {
		return true, nil
	}
	if editingErr := run.driver.BeginEditing(ctx); editingErr != nil {
		return false, editingErr
	}
	available, availableErr := run.driver.PasteAvailable(ctx)
	if availableErr != nil {
		_ = run.driver.CancelEditing(ctx)
		return false, availableErr
	}
	assertErr := verify.AssertPasteAvailable(*row.PasteAvailable, available)
	if assertErr == nil && available {
		return true, nil
	}
	if cancelErr := run.driver.CancelEditing(ctx); cancelErr != nil && assertErr == nil {
		return false, cancelErr
	}
	return false, assertErr
}

// pasteFailure reports an application offering a widget copied on another dashboard kind as a
// failed expectation.
func pasteFailure(pasteErr error) error {
	if errors.Is(pasteErr, scenario.ErrCrossContextPasteOffered) {
		return &verify.AssertionError{Check: checkCrossContextPaste, Expected: "paste not offered", Actual: pasteErr.Error()}
	}
	return pasteErr
}

func (run *tableRun) copyPaste(ctx context.Context, row provider.Row) error {
	staged, copyErr := run.stage(ctx, row)
	if copyErr != nil {
		return copyErr
	}
	proceed, availableErr := run.checkPasteAvailable(ctx, row)
	if availableErr != nil || !proceed {
		return availableErr
	}
	if pasteErr := run.driver.PasteWidget(ctx, staged); pasteErr != nil {
		return pasteFailure(pasteErr)
	}
	outcome, saveErr := run.save(ctx)
	if saveErr != nil {
		return saveErr
	}
	if outcomeErr := checkOutcome(row, outcome); outcomeErr != nil || outcome.Class != model.OutcomeSuccess {
		return outcomeErr
	}
	return run.verifyRendering(ctx, row, staged.Header())
}

func (run *tableRun) replace(ctx context.Context, row provider.Row) error {
	staged, copyErr := run.stage(ctx, row)
	if copyErr != nil {
		return copyErr
	}
	target, captureErr := run.driver.CaptureSnapshot(ctx, row.Target)
	if captureErr != nil {
		return captureErr
	}
	proceed, availableErr := run.checkPasteAvailable(ctx, row)
	if availableErr != nil || !proceed {
		return availableErr
	}
	expected, replaceErr := run.driver.ReplaceWidget(ctx, target.Header, staged)
	if replaceErr != nil {
		return pasteFailure(replaceErr)
	}
	outcome, saveErr := run.save(ctx)
	if saveErr != nil {
		return saveErr
	}
	if outcomeErr := checkOutcome(row, outcome); outcomeErr != nil || outcome.Class != model.OutcomeSuccess {
		return outcomeErr
	}

	actual, captureErr := run.driver.CaptureSnapshotAt(ctx, expected.Geometry)
	if errors.Is(captureErr, scenario.ErrWidgetNotFound) {
		return &verify.AssertionError{
			Check:    checkReplacementPosition,
			Expected: fmt.Sprintf("%q at %s", expected.Header, expected.Geometry),
			Actual:   "no widget",
		}
	}
	if captureErr != nil {
		return captureErr
	}
	if snapshotErr := verify.AssertSnapshotsEqual(expected, actual, true); snapshotErr != nil {
		return snapshotErr
	}
	run.session().CurrentWidgetName = staged.Header()
	if target.Header != staged.Header() {
		if absentErr := run.assertAbsent(ctx, target.Header); absentErr != nil {
			return absentErr
		}
	}
	return run.verifyRendering(ctx, row, staged.Header())
}
