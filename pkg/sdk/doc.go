// Package vecrec embeds the catalog recommender in a Go program.
//
// The client owns a catalog store (in-memory by default, or Valkey, Redis and
// PostgreSQL with pgvector) and runs the same retrieval and budget policy as
// the vecrec service.
//
//	client, _ := vecrec.New(ctx,
//	    vecrec.WithValkey("localhost:6379", ""),
//	    vecrec.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	_, _ = client.Seed(ctx, items)
//	_, _ = client.Reembed(ctx, false)
//	res, _ := client.Recommend(ctx, vecrec.Need{
//	    ProductType:   "hoodie",
//	    Quantity:      50,
//	    BudgetPerUnit: 40,
//	})
//
// Without WithEmbedder every query uses a neutral vector and recommendations
// fall back to the cheapest items.
package vecrec
