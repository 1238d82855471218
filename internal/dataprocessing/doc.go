// Package dataprocessing turns the TopM and Addison exports into the merged
// cost-center report.
//
// # Stages
//
//  1. Loader: reads the last sheet of each workbook below a fixed header row
//  2. KPI deriver: drops sentinel categories, adds ratios and Modifikationen
//  3. Aggregator: one row per KSt with ratios recomputed from sums
//  4. Reshaper: pivots the Addison metrics to one row per KSt
//  5. Merger: left join on KSt and computation of Aufwendungen final
//
// Every stage takes a *frame.Frame and returns a new one; inputs are never
// modified.
//
// # Usage
//
//	p := dataprocessing.NewProcessor(logger, tracer, metrics)
//	res, err := p.Run(ctx, "topm.xlsx", "addison.xlsx")
//	if err != nil {
//	    return err
//	}
//	// res.Report holds the final frame
//
// # Error Handling
//
// Failures are *errors.AppError values. Unreadable workbooks are LOAD errors,
// absent or non-numeric required columns are SCHEMA errors listing every
// missing and available column, and a null ratio reaching the final cost
// step is a COMPUTATION error naming the cost centers.
package dataprocessing
