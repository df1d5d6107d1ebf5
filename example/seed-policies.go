// Creates and seeds the travel policy database the assistant's
// search_travel_policy tool reads from. Run once before first use:
//
//	go run example/seed-policies.go
package main

import (
	"database/sql"
	"flag"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	path := flag.String("db", "policies.db", "Path of the database to create")
	flag.Parse()

	db, err := sql.Open("sqlite3", *path)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS policies (
            id INTEGER PRIMARY KEY,
            category TEXT NOT NULL,
            title TEXT NOT NULL,
            body TEXT NOT NULL
        );
    `)
	if err != nil {
		panic(err)
	}

	_, err = db.Exec(`
        INSERT OR IGNORE INTO policies (id, category, title, body) VALUES
        (1, 'flights', 'Booking class',
         'Economy class for all flights under 6 hours. Premium economy is permitted on flights over 6 hours with manager approval. Business class requires director approval and is limited to flights over 10 hours.'),
        (2, 'flights', 'Advance booking',
         'Book flights at least 14 days in advance where possible. Bookings made under 7 days before departure require a written justification.'),
        (3, 'hotels', 'Nightly rate caps',
         'Standard cap is 200 USD per night. Major metro areas (New York, London, Tokyo, San Francisco) have a 350 USD cap. Rates above the cap require manager approval before booking.'),
        (4, 'hotels', 'Preferred chains',
         'Use preferred hotel partners when available; the booking portal lists current partners. Loyalty points from business travel may be kept by the traveler.'),
        (5, 'ground', 'Rental cars and rideshare',
         'Compact or midsize rental cars only. Rideshare is preferred for trips under 50 miles. Black car services are not reimbursable.'),
        (6, 'meals', 'Daily meal allowance',
         'Meal allowance is 75 USD per day domestic and 100 USD per day international. Alcohol is not reimbursable. Itemized receipts are required for any single meal over 25 USD.'),
        (7, 'expenses', 'Submission deadline',
         'Submit expense reports within 30 days of trip completion. Reports older than 90 days will not be reimbursed.'),
        (8, 'weather', 'Severe weather disruptions',
         'If severe weather is forecast at the destination, travelers may rebook without approval. Check active weather alerts before departure and keep receipts for any disruption-related costs.');
    `)
	if err != nil {
		panic(err)
	}

	var count int
	if err := db.QueryRow(`SELECT count(*) FROM policies`).Scan(&count); err != nil {
		panic(err)
	}
	fmt.Printf("Seeded %s with %d policy sections\n", *path, count)
}
