// Command orderctl drives the order client from the terminal: it lists and
// inspects orders, places new ones, cancels, requests returns, and follows
// shipment tracking. All state flows through the order store, the same way
// a storefront UI would consume it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/JuanJosePl/new-killaVibe-sub001/internal/app"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/config"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/domain"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/repository"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/service"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/store"
	apperrors "github.com/JuanJosePl/new-killaVibe-sub001/pkg/errors"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/logger"
)

const usage = `orderctl manages your storefront orders.

Usage:
  orderctl <command> [flags] [args]

Commands:
  list     list orders (-page, -limit, -status, -sort, -order, -json)
  show     show one order: orderctl show <order-id> (-json)
  create   place an order from a JSON request: orderctl create -file <path|->
  cancel   cancel an order: orderctl cancel <order-id>
  return   request a return: orderctl return -reason <text> <order-id>
  track    show shipment tracking: orderctl track <order-id> (-json)
  stats    summarize the order history (-limit, -json)
  watch    follow tracking until delivery: orderctl watch <order-id> (-interval)

Configuration comes from STOREFRONT_* environment variables; a local .env
file is read when present.
`

func main() {
	// Local development reads backend settings from .env when present.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Logs go to stderr so command output stays pipeable.
	log := logger.NewWithWriter("orderctl", cfg.LogLevel, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	code := run(ctx, application, os.Args[1], os.Args[2:])

	if err := application.Shutdown(); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	os.Exit(code)
}

func run(ctx context.Context, application *app.App, cmd string, args []string) int {
	st := application.Store()

	switch cmd {
	case "list":
		return cmdList(ctx, st, args)
	case "show":
		return cmdShow(ctx, st, args)
	case "create":
		return cmdCreate(ctx, st, args)
	case "cancel":
		return cmdCancel(ctx, st, args)
	case "return":
		return cmdReturn(ctx, st, args)
	case "track":
		return cmdTrack(ctx, st, args)
	case "stats":
		return cmdStats(ctx, st, args)
	case "watch":
		return cmdWatch(ctx, application, args)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stderr, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
}

func cmdList(ctx context.Context, st *store.Store, args []string) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 10, "orders per page")
	status := fs.String("status", "", "filter by order status")
	sortBy := fs.String("sort", "createdAt", "sort key: createdAt, totalAmount, status")
	order := fs.String("order", "desc", "sort direction: asc or desc")
	asJSON := fs.Bool("json", false, "print raw JSON")
	_ = fs.Parse(args)

	res := st.LoadOrders(ctx, repository.ListQuery{
		Page:      *page,
		Limit:     *limit,
		Status:    *status,
		SortBy:    *sortBy,
		SortOrder: *order,
	})
	if res.Err != nil {
		return fail(res.Err)
	}

	orders := st.Orders()
	meta := st.Meta()

	if *asJSON {
		return printJSON(map[string]any{
			"orders":     snapshots(orders),
			"pagination": meta,
		})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tSTATUS\tPAYMENT\tITEMS\tTOTAL\tPLACED")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%s\n",
			displayName(&o), o.Status, o.PaymentStatus, o.ItemsCount, o.TotalAmount, formatTime(o.CreatedAt))
	}
	_ = w.Flush()
	fmt.Printf("page %d of %d (%d orders)\n", meta.Current, meta.Pages, meta.Total)
	return 0
}

func cmdShow(ctx context.Context, st *store.Store, args []string) int {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print raw JSON")
	_ = fs.Parse(args)

	id := fs.Arg(0)
	if id == "" {
		fmt.Fprintln(os.Stderr, "show: order id required")
		return 2
	}

	res := st.LoadOrder(ctx, id)
	if res.Err != nil {
		return fail(res.Err)
	}

	if *asJSON {
		return printJSON(res.Order.Snapshot())
	}
	printOrder(res.Order)
	return 0
}

func cmdCreate(ctx context.Context, st *store.Store, args []string) int {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	file := fs.String("file", "", "JSON file with the order request, - for stdin")
	asJSON := fs.Bool("json", false, "print raw JSON")
	_ = fs.Parse(args)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "create: -file is required")
		return 2
	}

	data, err := readInput(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create: %v\n", err)
		return 1
	}

	var req repository.CreateOrderRequest
	if err := json.Unmarshal(data, &req); err != nil {
		fmt.Fprintf(os.Stderr, "create: invalid request JSON: %v\n", err)
		return 1
	}

	res := st.Create(ctx, req)
	if res.Err != nil {
		return fail(res.Err)
	}

	if *asJSON {
		return printJSON(res.Order.Snapshot())
	}
	fmt.Printf("order %s placed (status %s, total %.2f)\n",
		displayName(res.Order), res.Order.Status, res.Order.TotalAmount)
	return 0
}

func cmdCancel(ctx context.Context, st *store.Store, args []string) int {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	_ = fs.Parse(args)

	id := fs.Arg(0)
	if id == "" {
		fmt.Fprintln(os.Stderr, "cancel: order id required")
		return 2
	}

	// Load the order first so eligibility is checked against fresh state.
	if res := st.LoadOrder(ctx, id); res.Err != nil {
		return fail(res.Err)
	}

	res := st.Cancel(ctx, id)
	if res.Err != nil {
		return fail(res.Err)
	}

	fmt.Printf("order %s cancelled\n", displayName(res.Order))
	return 0
}

func cmdReturn(ctx context.Context, st *store.Store, args []string) int {
	fs := flag.NewFlagSet("return", flag.ExitOnError)
	reason := fs.String("reason", "", "why the order is being returned (10-500 characters)")
	_ = fs.Parse(args)

	id := fs.Arg(0)
	if id == "" {
		fmt.Fprintln(os.Stderr, "return: order id required")
		return 2
	}

	if res := st.LoadOrder(ctx, id); res.Err != nil {
		return fail(res.Err)
	}

	res := st.RequestReturn(ctx, id, *reason)
	if res.Err != nil {
		return fail(res.Err)
	}

	fmt.Printf("return requested for order %s (status %s)\n",
		displayName(res.Order), res.Order.Status)
	return 0
}

func cmdTrack(ctx context.Context, st *store.Store, args []string) int {
	fs := flag.NewFlagSet("track", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print raw JSON")
	_ = fs.Parse(args)

	id := fs.Arg(0)
	if id == "" {
		fmt.Fprintln(os.Stderr, "track: order id required")
		return 2
	}

	if res := st.LoadTracking(ctx, id); res.Err != nil {
		return fail(res.Err)
	}

	info := st.Tracking()
	if *asJSON {
		return printJSON(info)
	}
	printTracking(info)
	return 0
}

func cmdStats(ctx context.Context, st *store.Store, args []string) int {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	limit := fs.Int("limit", 100, "number of recent orders to summarize")
	asJSON := fs.Bool("json", false, "print raw JSON")
	_ = fs.Parse(args)

	res := st.LoadOrders(ctx, repository.ListQuery{Page: 1, Limit: *limit})
	if res.Err != nil {
		return fail(res.Err)
	}

	stats := service.Stats(st.Orders())

	if *asJSON {
		return printJSON(stats)
	}

	fmt.Printf("orders: %d\n", stats.Total)
	for _, status := range domain.ValidOrderStatuses() {
		if n := stats.ByStatus[status]; n > 0 {
			fmt.Printf("  %-12s %d\n", status, n)
		}
	}
	fmt.Printf("total spent: %.2f\n", stats.TotalSpent)
	return 0
}

func cmdWatch(ctx context.Context, application *app.App, args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := fs.Duration("interval", 30*time.Second, "polling interval")
	_ = fs.Parse(args)

	id := fs.Arg(0)
	if id == "" {
		fmt.Fprintln(os.Stderr, "watch: order id required")
		return 2
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The admin listener serves health and metrics while the watch runs.
	adminErr := make(chan error, 1)
	go func() { adminErr <- application.Run(ctx) }()

	st := application.Store()
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		if res := st.LoadTracking(ctx, id); res.Err != nil {
			return fail(res.Err)
		}

		info := st.Tracking()
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), info.Status)

		if trackingDone(info) {
			printTracking(info)
			return 0
		}

		select {
		case <-ctx.Done():
			return 0
		case err := <-adminErr:
			if err != nil {
				return fail(err)
			}
			return 0
		case <-ticker.C:
		}
	}
}

// trackingDone reports whether the shipment reached a state that no longer
// changes.
func trackingDone(info *domain.TrackingInfo) bool {
	switch domain.OrderStatus(info.Status) {
	case domain.OrderStatusDelivered, domain.OrderStatusCancelled, domain.OrderStatusReturned:
		return true
	}
	return false
}

func printOrder(o *domain.Order) {
	fmt.Printf("Order %s\n", displayName(o))
	fmt.Printf("Status:   %s (payment %s", o.Status, o.PaymentStatus)
	if o.PaymentMethod != "" {
		fmt.Printf(" via %s", o.PaymentMethod)
	}
	fmt.Println(")")
	fmt.Printf("Placed:   %s\n", formatTime(o.CreatedAt))
	if o.ShippedAt != nil {
		fmt.Printf("Shipped:  %s\n", formatTime(o.ShippedAt))
	}
	if o.DeliveredAt != nil {
		fmt.Printf("Delivered: %s\n", formatTime(o.DeliveredAt))
	}
	if o.TrackingNumber != "" {
		fmt.Printf("Tracking: %s\n", o.TrackingNumber)
	}

	fmt.Printf("Items (%d):\n", o.ItemsCount)
	for _, item := range o.Items {
		fmt.Printf("  %d x %-30s %10.2f\n", item.Quantity, item.Name, item.Price)
	}

	fmt.Printf("Subtotal %.2f  Shipping %.2f  Tax %.2f  Discount %.2f\n",
		o.Subtotal, o.ShippingCost, o.TaxAmount, o.DiscountAmount)
	fmt.Printf("Total %.2f", o.TotalAmount)
	if o.RefundAmount > 0 {
		fmt.Printf("  Refunded %.2f", o.RefundAmount)
	}
	fmt.Println()

	if a := o.ShippingAddress; a != nil {
		fmt.Printf("Ship to:  %s %s, %s, %s %s %s\n",
			a.FirstName, a.LastName, a.Street, a.City, a.State, a.ZipCode)
	}

	now := time.Now()
	if decision := domain.CanCancelOrder(o); decision.Allowed {
		fmt.Println("Cancellable: yes")
	} else {
		fmt.Printf("Cancellable: no (%s)\n", decision.Reason)
	}
	if o.CanBeReturned(now) {
		fmt.Printf("Returnable:  yes (%d days left)\n", domain.ReturnWindowDaysRemaining(*o.DeliveredAt, now))
	} else if decision := domain.CanReturnOrder(o, now); decision.Reason != "" {
		fmt.Printf("Returnable:  no (%s)\n", decision.Reason)
	}
}

func printTracking(info *domain.TrackingInfo) {
	name := info.OrderNumber
	if name == "" {
		name = info.OrderID
	}
	fmt.Printf("Tracking for %s", name)
	if info.Carrier != "" {
		fmt.Printf(" via %s", info.Carrier)
	}
	if info.TrackingNumber != "" {
		fmt.Printf(" (%s)", info.TrackingNumber)
	}
	fmt.Printf("\nStatus: %s\n", info.Status)
	if info.EstimatedDelivery != nil {
		fmt.Printf("Estimated delivery: %s\n", info.EstimatedDelivery.Local().Format("2006-01-02"))
	}
	for _, ev := range info.Events {
		line := ev.Status
		if ev.Description != "" {
			line += ": " + ev.Description
		}
		if ev.Location != "" {
			line += " (" + ev.Location + ")"
		}
		fmt.Printf("  %s  %s\n", ev.Timestamp.Local().Format("2006-01-02 15:04"), line)
	}
}

// fail prints the error for humans: the domain message plus any field
// errors, never a Go error chain.
func fail(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(os.Stderr, "error: %s\n", appErr.Message)
		for _, f := range appErr.Fields {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Field, f.Message)
		}
		return 1
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func snapshots(orders []domain.Order) []domain.OrderPayload {
	out := make([]domain.OrderPayload, len(orders))
	for i := range orders {
		out[i] = orders[i].Snapshot()
	}
	return out
}

func displayName(o *domain.Order) string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.ID
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
