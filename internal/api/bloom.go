package api

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// submissionWindow：重复提交的判定窗口
	submissionWindow = 10 * time.Minute
	bloomBits        = 1 << 20
	bloomHashes      = 4
)

// bloomPositions：FNV64a 加索引扰动生成 k 个位置
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	for i := 0; i < k; i++ {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write(data)
		pos[i] = int64(uint32(h.Sum64() % uint64(m)))
	}
	return pos
}

// bloomCheckAndSet：true 表示首次见到并已写入位图，false 表示已存在
// 约束：rc 为 nil 时一律放行
func bloomCheckAndSet(ctx context.Context, rc *redis.Client, key string, positions []int64, ttl time.Duration) (bool, error) {
	if rc == nil {
		return true, nil
	}
	pipe := rc.Pipeline()
	cmds := make([]*redis.IntCmd, len(positions))
	for i, p := range positions {
		cmds[i] = pipe.GetBit(ctx, key, p)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	seen := true
	for _, c := range cmds {
		if c.Val() == 0 {
			seen = false
			break
		}
	}
	if seen {
		return false, nil
	}
	pipe = rc.Pipeline()
	for _, p := range positions {
		pipe.SetBit(ctx, key, p, 1)
	}
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return true, err
}

// submissionKey：按窗口分桶，桶过期后位图整体失效
func submissionKey(now time.Time) string {
	return "bloom:stall_submit:" + strconv.FormatInt(now.Unix()/int64(submissionWindow.Seconds()), 10)
}

// firstSubmission：同一邮箱与位置在当前窗口内是否首次提交
func (s *Server) firstSubmission(ctx context.Context, fingerprint string) (bool, error) {
	return bloomCheckAndSet(ctx, s.rc, submissionKey(s.now()), bloomPositions([]byte(fingerprint), bloomBits, bloomHashes), 2*submissionWindow)
}
