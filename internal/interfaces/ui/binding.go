package ui

import (
	"context"
	"fmt"
	"net/url"

	"github.com/garyjia/billed/internal/application/controller"
	"github.com/garyjia/billed/internal/application/dispatcher"
	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/application/presenter"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/domain/event"
)

// Payload keys carried by UI events
const (
	PayloadBillID = "bill_id"
	PayloadFiles  = "files"
	PayloadValues = "values"
)

// BindBills wires the bills page actions present in doc to list. bills are
// the records the preview icons refer to.
func BindBills(d dispatcher.Dispatcher, doc Document, list *presenter.BillList, bills []entity.Bill) {
	if doc.Has(ElementNewBill) {
		d.SubscribeTarget(event.TypeClick, ElementNewBill, "bills.new", func(ctx context.Context, evt *event.Event) error {
			return list.OnCreateRequested(ctx)
		})
	}

	if doc.Has(ElementEye) {
		byID := make(map[string]entity.Bill, len(bills))
		for _, b := range bills {
			byID[b.ID] = b
		}
		d.SubscribeTarget(event.TypeClick, ElementEye, "bills.preview", func(ctx context.Context, evt *event.Event) error {
			id := evt.GetPayloadString(PayloadBillID)
			bill, ok := byID[id]
			if !ok {
				return fmt.Errorf("unknown bill %q", id)
			}
			list.OnPreviewRequested(bill)
			return nil
		})
	}
}

// BindNewBill wires the file input and the form of the new-bill page to form
func BindNewBill(d dispatcher.Dispatcher, doc Document, form *controller.BillForm) {
	if doc.Has(ElementFile) {
		d.SubscribeTarget(event.TypeChange, ElementFile, "new_bill.file", func(ctx context.Context, evt *event.Event) error {
			files, _ := evt.Get(PayloadFiles).([]port.File)
			return form.HandleChangeFile(ctx, files)
		})
	}

	if doc.Has(ElementNewBillForm) {
		d.SubscribeTarget(event.TypeSubmit, ElementNewBillForm, "new_bill.submit", func(ctx context.Context, evt *event.Event) error {
			values, _ := evt.Get(PayloadValues).(url.Values)
			snapshot, err := controller.ParseFormSnapshot(values)
			if err != nil {
				return err
			}
			return form.HandleSubmit(ctx, snapshot)
		})
	}
}

// Page delivers synthetic user interactions through the dispatcher
type Page struct {
	dispatcher dispatcher.Dispatcher
}

// NewPage creates a page dispatching on d
func NewPage(d dispatcher.Dispatcher) *Page {
	return &Page{dispatcher: d}
}

// Click clicks target. billID identifies the row for row-level icons.
func (p *Page) Click(ctx context.Context, target, billID string) error {
	payload := map[string]interface{}{}
	if billID != "" {
		payload[PayloadBillID] = billID
	}
	return p.dispatcher.Dispatch(ctx, event.NewEvent(event.TypeClick, target, payload))
}

// Change selects files on the target input
func (p *Page) Change(ctx context.Context, target string, files ...port.File) error {
	return p.dispatcher.Dispatch(ctx, event.NewEvent(event.TypeChange, target, map[string]interface{}{
		PayloadFiles: files,
	}))
}

// Submit submits the target form with values
func (p *Page) Submit(ctx context.Context, target string, values url.Values) error {
	return p.dispatcher.Dispatch(ctx, event.NewEvent(event.TypeSubmit, target, map[string]interface{}{
		PayloadValues: values,
	}))
}
