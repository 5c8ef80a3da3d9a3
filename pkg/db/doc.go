// Package db wraps pgxpool with the connection, migration and transaction
// helpers the service needs.
//
// Connect retries with a linear backoff so the process can start alongside the
// database container. When every attempt fails it returns an error and the caller
// refuses to serve.
//
//	pool, err := db.Connect(ctx, cfg.DB, log)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, migrations.FS, cfg.DB.MigrationsTable, log); err != nil {
//		return err
//	}
//
// Repositories take a Queryer and resolve it per call with QueryerFromContext, so
// the same code runs inside or outside InTx:
//
//	err := db.InTx(ctx, pool, func(ctx context.Context) error {
//		return repo.Insert(ctx, row) // joins the transaction carried by ctx
//	})
package db
