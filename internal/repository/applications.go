// internal/repository/applications.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"application-documents/internal/models"

	"github.com/google/uuid"
)

const applicationQuery = `
	SELECT a.id, a.state, a.reference_number, p.first_name, p.surname, a.applied_on,
	       a.is_legal_entity, le.name, le.registration_number, le.tax_number,
	       r.id, r.reason, r.created_at
	FROM applications a
	JOIN persons p ON p.id = a.person_id
	LEFT JOIN legal_entities le ON le.id = a.legal_entity_id
	LEFT JOIN LATERAL (
		SELECT id, reason, created_at FROM application_reviews
		WHERE application_id = a.id AND resolved_at IS NULL
		ORDER BY created_at DESC LIMIT 1
	) r ON true
	WHERE a.id = $1`

const portfolioQuery = `
	SELECT pr.id, pr.name, f.id, f.name, f.amount, f.fees
	FROM application_products pr
	LEFT JOIN product_funds f ON f.product_id = pr.id
	WHERE pr.application_id = $1
	ORDER BY pr.position, f.position`

// ApplicationRepository reads application snapshots from PostgreSQL.
type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// FindByID returns the application with its portfolio and open review, or
// (nil, nil) when no application has that id.
func (r *ApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var (
		app        models.Application
		state      string
		leName     sql.NullString
		leRegNo    sql.NullString
		leTaxNo    sql.NullString
		reviewID   uuid.NullUUID
		reason     sql.NullString
		reviewedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, applicationQuery, id).Scan(
		&app.ID, &state, &app.ReferenceNumber, &app.Person.FirstName, &app.Person.Surname, &app.Date,
		&app.IsLegalEntity, &leName, &leRegNo, &leTaxNo,
		&reviewID, &reason, &reviewedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query application %s: %w", id, err)
	}

	app.State = models.ApplicationState(state)
	if leName.Valid {
		app.LegalEntity = &models.LegalEntity{
			Name:               leName.String,
			RegistrationNumber: leRegNo.String,
			TaxNumber:          leTaxNo.String,
		}
	}
	if reviewID.Valid {
		app.CurrentReview = &models.Review{
			ID:        reviewID.UUID,
			Reason:    reason.String,
			CreatedAt: reviewedAt.Time,
		}
	}

	products, err := r.portfolio(ctx, id)
	if err != nil {
		return nil, err
	}
	app.Products = products

	return &app, nil
}

func (r *ApplicationRepository) portfolio(ctx context.Context, id uuid.UUID) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, portfolioQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query portfolio %s: %w", id, err)
	}
	defer rows.Close()

	products := []models.Product{}
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			productID   uuid.UUID
			productName string
			fundID      uuid.NullUUID
			fundName    sql.NullString
			amount      sql.NullFloat64
			fees        sql.NullFloat64
		)
		if err := rows.Scan(&productID, &productName, &fundID, &fundName, &amount, &fees); err != nil {
			return nil, fmt.Errorf("scan portfolio row: %w", err)
		}

		i, seen := index[productID]
		if !seen {
			products = append(products, models.Product{ID: productID, Name: productName, Funds: []models.Fund{}})
			i = len(products) - 1
			index[productID] = i
		}
		if fundID.Valid {
			products[i].Funds = append(products[i].Funds, models.Fund{
				ID:     fundID.UUID,
				Name:   fundName.String,
				Amount: amount.Float64,
				Fees:   fees.Float64,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portfolio: %w", err)
	}

	return products, nil
}
