package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/DRSN-tech/catalog-service/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

const productColumns = "id, name, description, price, stock_quantity, created_at, updated_at"

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Create вставляет новый товар. Конфликт по уникальному имени
// транслируется в e.ErrProductNameTaken.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (name, description, price, stock_quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + productColumns + `;
	`

	var model converter.ProductModel
	err = tx.QueryRow(ctx, query, product.Name, product.Description, product.Price, product.StockQuantity).
		Scan(
			&model.ID, &model.Name, &model.Description, &model.Price,
			&model.StockQuantity, &model.CreatedAt, &model.UpdatedAt,
		)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNameTaken)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// Update перезаписывает все поля товара по id и обновляет updated_at.
// Конфликт по имени транслируется в e.ErrProductNameTaken.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock_quantity = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns + `;
	`

	var model converter.ProductModel
	err = tx.QueryRow(ctx, query, product.ID, product.Name, product.Description, product.Price, product.StockQuantity).
		Scan(
			&model.ID, &model.Name, &model.Description, &model.Price,
			&model.StockQuantity, &model.CreatedAt, &model.UpdatedAt,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNameTaken)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// DeleteByID удаляет товар без tombstone-записи.
func (p *ProductRepo) DeleteByID(ctx context.Context, id int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

// GetByID возвращает товар по идентификатору.
func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return p.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetByName возвращает товар по точному совпадению имени.
func (p *ProductRepo) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	return p.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE name = $1`, name)
}

// GetAll возвращает все товары. Порядок записей не гарантируется.
func (p *ProductRepo) GetAll(ctx context.Context) ([]domain.Product, error) {
	return p.getMany(ctx, `SELECT `+productColumns+` FROM products`)
}

// GetByMaxPrice возвращает товары с ценой не выше maxPrice (включительно).
func (p *ProductRepo) GetByMaxPrice(ctx context.Context, maxPrice decimal.Decimal) ([]domain.Product, error) {
	return p.getMany(ctx, `SELECT `+productColumns+` FROM products WHERE price <= $1`, maxPrice)
}

// GetLowStock возвращает товары с остатком не выше threshold (включительно).
func (p *ProductRepo) GetLowStock(ctx context.Context, threshold int32) ([]domain.Product, error) {
	return p.getMany(ctx, `SELECT `+productColumns+` FROM products WHERE stock_quantity <= $1`, threshold)
}

// ExistsByName проверяет наличие товара с данным именем.
func (p *ProductRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return p.exists(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE name = $1)`, name)
}

// ExistsByID проверяет наличие товара с данным идентификатором.
func (p *ProductRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return p.exists(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id)
}

func (p *ProductRepo) getOne(ctx context.Context, query string, arg any) (*domain.Product, error) {
	var model converter.ProductModel
	err := p.pool.QueryRow(ctx, query, arg).
		Scan(
			&model.ID, &model.Name, &model.Description, &model.Price,
			&model.StockQuantity, &model.CreatedAt, &model.UpdatedAt,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

func (p *ProductRepo) getMany(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]*converter.ProductModel, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := rows.Scan(
			&model.ID, &model.Name, &model.Description, &model.Price,
			&model.StockQuantity, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, &model)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), nil
}

func (p *ProductRepo) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

// postgresDuplicate распознаёт нарушение уникального ограничения (SQLSTATE 23505).
func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
