// Package planner decides when and how much to charge the battery from
// the grid. A single hour-by-hour SOC simulation from now through the end
// of tomorrow yields the minimum charge that keeps the battery above its
// floor; the price analyzer then locates the cheapest contiguous night
// window able to deliver it.
package planner
