// Package fakes provides test doubles for the AWS client interfaces the
// providers depend on.
//
// Fakes are manually implemented (not generated) to provide precise control
// over test behavior. Each fake counts its calls, which lets tests assert
// not just what a resolution returned but which backends it touched; a cache
// hit, for example, must leave every counter at zero.
//
// Usage:
//
//	fake := fakes.NewFakeSSMClient()
//	fake.AddSecureStringParameter("/orders-api/api-key", "k3y")
//	store, _ := providers.NewParameterStore(ctx, providers.ClientConfig{},
//	    providers.WithSSMClient(fake))
//	// Test store methods...
package fakes
