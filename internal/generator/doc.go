// Package generator produces candidate page URLs for a hosting profile.
//
// Tokens are drawn from the profile's alphabet at the profile's length.
// Beyond uniform random tokens the generator offers derived strategies
// (timestamp hash, index hash, sequential) that cluster candidates the
// way real upload tokens cluster; Smart mode mixes all strategies.
package generator
