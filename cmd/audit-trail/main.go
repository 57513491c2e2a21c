package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/napcube/pod-reservation-backend/internal/database"
	"github.com/napcube/pod-reservation-backend/pkg/validator"
	"github.com/sirupsen/logrus"
)

// Prints the payment audit trail of one booking, for reconciling against
// provider dashboards and UPI statements.
func main() {
	var bookingFlag, dbURLFlag string
	flag.StringVar(&bookingFlag, "booking", "", "booking id (required)")
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.Parse()

	bookingID, err := uuid.Parse(bookingFlag)
	if err != nil {
		log.Fatalf("invalid -booking %q: %v", bookingFlag, err)
	}

	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		Driver:             "postgres",
		MaxConnections:     1,
		MaxIdleConnections: 1,
	}, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	booking, err := database.NewBookingRepository(db.DB, logger).GetByID(ctx, bookingID)
	if err != nil {
		log.Fatalf("failed to load booking: %v", err)
	}

	audits, err := database.NewPaymentAuditRepository(db.DB, logger).ListByBooking(ctx, bookingID)
	if err != nil {
		log.Fatalf("failed to load audit trail: %v", err)
	}

	fmt.Printf("Booking %s  %s %s  status=%s payment=%s price=%d\n",
		booking.ID, booking.BookingDate, booking.BookingTime, booking.Status, booking.PaymentStatus, booking.Price)
	fmt.Printf("Customer %s <%s> %s\n\n", booking.CustomerName, booking.CustomerEmail, phone(booking.CustomerPhone))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tEVENT\tSOURCE\tORDER\tPAYMENT\tAMOUNT\tERROR")
	for _, a := range audits {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.CreatedAt.Format(time.RFC3339),
			a.EventType,
			a.EventSource,
			deref(a.RazorpayOrderID),
			deref(a.RazorpayPaymentID),
			amount(a.Amount),
			deref(a.ErrorMessage),
		)
	}
	w.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func amount(a *int64) string {
	if a == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *a)
}

func phone(p *string) string {
	if p == nil {
		return "-"
	}
	formatted, err := validator.NewPhoneValidator().Format(*p)
	if err != nil {
		return *p
	}
	return formatted
}
