package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/codigarte/codigarte/internal/pkg/cache"
	"github.com/codigarte/codigarte/internal/pkg/database"
)

const (
	exerciseAttemptsKey = "exercise:counters:attempts"
	exerciseSolvesKey   = "exercise:counters:solves"
	dailySolvesKey      = "statistics:solves:daily:%s" // Format with date YYYY-MM-DD

	dailySolvesTTL = 48 * time.Hour
)

// AddExerciseAttempt increments the pending attempt counter for an exercise in Redis
func AddExerciseAttempt(exerciseID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(exerciseID), 10)
	return cache.GetClient().HIncrBy(ctx, exerciseAttemptsKey, field, 1).Err()
}

// AddExerciseSolve increments the pending solve counter for an exercise in
// Redis, together with the rolling daily total used on the landing page.
func AddExerciseSolve(exerciseID uint) error {
	ctx := context.Background()
	rdb := cache.GetClient()
	field := strconv.FormatUint(uint64(exerciseID), 10)

	if err := rdb.HIncrBy(ctx, exerciseSolvesKey, field, 1).Err(); err != nil {
		return err
	}

	dayKey := fmt.Sprintf(dailySolvesKey, time.Now().UTC().Format("2006-01-02"))
	pipe := rdb.Pipeline()
	pipe.Incr(ctx, dayKey)
	pipe.Expire(ctx, dayKey, dailySolvesTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetDailySolves returns the number of exercises solved on the given day
func GetDailySolves(day time.Time) (int64, error) {
	ctx := context.Background()
	dayKey := fmt.Sprintf(dailySolvesKey, day.UTC().Format("2006-01-02"))
	val, err := cache.GetClient().Get(ctx, dayKey).Result()
	if err != nil {
		if err.Error() == "redis: nil" {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// FlushAll flushes pending attempt and solve counters to the database
func FlushAll() error {
	if err := flushHashToTable(exerciseAttemptsKey, "exercises", "attempt_count"); err != nil {
		return err
	}
	if err := flushHashToTable(exerciseSolvesKey, "exercises", "solve_count"); err != nil {
		return err
	}
	return nil
}

// flushHashToTable drains a Redis hash atomically and applies batched increments to the table.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushHashToTable(redisKey, table, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	// Collect ids and increments; sort ids for stable SQL
	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE <table> SET <column> = <column> + CASE id WHEN ? THEN ? ... END WHERE id IN ( ... )
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	builder.WriteString("UPDATE ")
	builder.WriteString(table)
	builder.WriteString(" SET ")
	builder.WriteString(column)
	builder.WriteString(" = ")
	builder.WriteString(column)
	builder.WriteString(" + CASE id ")
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	return database.GetDB().Exec(builder.String(), args...).Error
}
