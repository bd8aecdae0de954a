package statistics

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/codigarte/codigarte/app/models"
	"github.com/codigarte/codigarte/internal/pkg/cache"
	"github.com/codigarte/codigarte/internal/pkg/database"
	"github.com/codigarte/codigarte/internal/pkg/metrics/counter"
)

const (
	CacheKeyUsers       = "statistics:users:total"
	CacheKeySolvedTotal = "statistics:solves:total"
	CacheExpiration     = 30 * time.Minute
)

// StatisticsData holds the numbers shown on the landing page
type StatisticsData struct {
	TotalUsers  int
	TotalSolved int
	SolvedToday int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached numbers are stale
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when it is stale
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next check to refresh the cache
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	var totalSolved int64
	if err := db.Model(&models.Progress{}).Count(&totalSolved).Error; err != nil {
		log.Printf("Error counting solved exercises: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total users: %v", err)
		return err
	}
	if err := cache.Set(CacheKeySolvedTotal, strconv.FormatInt(totalSolved, 10), CacheExpiration); err != nil {
		log.Printf("Error caching solved exercises: %v", err)
		return err
	}

	return nil
}

// GetStatisticsData returns the landing page numbers, refreshing the cache
// when needed
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	solvedToday, err := counter.GetDailySolves(time.Now())
	if err != nil {
		log.Printf("Error reading daily solves: %v", err)
	}

	return StatisticsData{
		TotalUsers:  getCachedCount(CacheKeyUsers, &models.User{}),
		TotalSolved: getCachedCount(CacheKeySolvedTotal, &models.Progress{}),
		SolvedToday: int(solvedToday),
	}
}

// getCachedCount returns a counter from cache, falling back to the database
func getCachedCount(key string, model interface{}) int {
	val, err := cache.Get(key)
	if err != nil {
		var count int64
		if err := database.GetDB().Model(model).Count(&count).Error; err != nil {
			log.Printf("Error counting %T: %v", model, err)
			return 0
		}
		if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching %s: %v", key, err)
		}
		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return int(count)
}
