package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/startdusk/erp-datasource/cache/mocks"
)

func Test_ReadThroughCache_Get(t *testing.T) {
	loadErr := errors.New("数据库挂了")
	cases := []struct {
		name     string
		key      string
		mock     func(ctrl *gomock.Controller) Cache
		loadFunc func(ctx context.Context, key string) (any, error)
		wantVal  any
		wantErr  error
	}{
		{
			name: "cache hit",
			key:  "producto",
			mock: func(ctrl *gomock.Controller) Cache {
				c := mocks.NewMockCache(ctrl)
				c.EXPECT().Get(gomock.Any(), "producto").Return("id,nombre", nil)
				return c
			},
			loadFunc: func(ctx context.Context, key string) (any, error) {
				t.Fatal("命中缓存的时候不应该回源")
				return nil, nil
			},
			wantVal: "id,nombre",
		},
		{
			name: "cache miss",
			key:  "producto",
			mock: func(ctrl *gomock.Controller) Cache {
				c := mocks.NewMockCache(ctrl)
				c.EXPECT().Get(gomock.Any(), "producto").Return(nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, "producto"))
				c.EXPECT().Set(gomock.Any(), "producto", "id,nombre", time.Minute).Return(nil)
				return c
			},
			loadFunc: func(ctx context.Context, key string) (any, error) {
				return "id,nombre", nil
			},
			wantVal: "id,nombre",
		},
		{
			name: "load error",
			key:  "producto",
			mock: func(ctrl *gomock.Controller) Cache {
				c := mocks.NewMockCache(ctrl)
				c.EXPECT().Get(gomock.Any(), "producto").Return(nil, ErrKeyNotFound)
				return c
			},
			loadFunc: func(ctx context.Context, key string) (any, error) {
				return nil, loadErr
			},
			wantErr: loadErr,
		},
		{
			name: "set error",
			key:  "producto",
			mock: func(ctrl *gomock.Controller) Cache {
				c := mocks.NewMockCache(ctrl)
				c.EXPECT().Get(gomock.Any(), "producto").Return(nil, ErrKeyNotFound)
				c.EXPECT().Set(gomock.Any(), "producto", "id,nombre", time.Minute).Return(errors.New("满了"))
				return c
			},
			loadFunc: func(ctx context.Context, key string) (any, error) {
				return "id,nombre", nil
			},
			wantVal: "id,nombre",
			wantErr: ErrFailedToRefreshCache,
		},
		{
			// 缓存连不上的时候回源, 不再写缓存
			name: "cache error",
			key:  "producto",
			mock: func(ctrl *gomock.Controller) Cache {
				c := mocks.NewMockCache(ctrl)
				c.EXPECT().Get(gomock.Any(), "producto").Return(nil, errors.New("redis: connection refused"))
				return c
			},
			loadFunc: func(ctx context.Context, key string) (any, error) {
				return "id,nombre", nil
			},
			wantVal: "id,nombre",
			wantErr: ErrFailedToRefreshCache,
		},
		{
			name: "cache error and load error",
			key:  "producto",
			mock: func(ctrl *gomock.Controller) Cache {
				c := mocks.NewMockCache(ctrl)
				c.EXPECT().Get(gomock.Any(), "producto").Return(nil, errors.New("redis: connection refused"))
				return c
			},
			loadFunc: func(ctx context.Context, key string) (any, error) {
				return nil, loadErr
			},
			wantErr: loadErr,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			rc := NewReadThroughCache(c.mock(ctrl), c.loadFunc, time.Minute)
			val, err := rc.Get(context.Background(), c.key)
			assert.ErrorIs(t, err, c.wantErr)
			assert.Equal(t, c.wantVal, val)
		})
	}
}

func Test_ReadThroughCache_Refresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	c := mocks.NewMockCache(ctrl)
	c.EXPECT().Set(gomock.Any(), "producto", "id,nombre,precio", time.Minute).Return(nil)

	rc := NewReadThroughCache(c, func(ctx context.Context, key string) (any, error) {
		return "id,nombre,precio", nil
	}, time.Minute)
	require.NoError(t, rc.Refresh(context.Background(), "producto"))
}

func Test_ReadThroughCache_Singleflight(t *testing.T) {
	local := NewBuildInMapCache(time.Minute)
	defer local.Close()

	var loads int32
	release := make(chan struct{})
	rc := NewReadThroughCache(local, func(ctx context.Context, key string) (any, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return "id,nombre", nil
	}, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err := rc.Get(context.Background(), "producto")
			assert.NoError(t, err)
			assert.Equal(t, "id,nombre", val)
		}()
	}
	// 等所有的 goroutine 都进入 singleflight
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}
